package model

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}

type Student struct {
	ID          string
	FullName    string
	DateOfBirth string
	Gender      string
	ParentUID   string
	Deleted     bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Class struct {
	ID           string
	Name         string
	AcademicYear string
	TeacherUID   *string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Enrollment IDs take the form "<academicYear>_<studentID>": one enrollment
// per student per year.
type Enrollment struct {
	ID           string
	AcademicYear string
	StudentID    string
	ClassID      string
	ParentUID    string
	Status       string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusWithdrawn = "withdrawn"
)

// Payment documents are keyed "<academicYear>_<studentID>" and aggregate the
// year's fee state with individual records inline.
type Payment struct {
	ID           string
	AcademicYear string
	StudentID    string
	ParentUID    string
	TotalFees    float64
	PaidAmount   float64
	Records      []PaymentRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PaymentRecord struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Date   string  `json:"date"`
	Note   string  `json:"note,omitempty"`
}

type Homework struct {
	ID           string
	AcademicYear string
	ClassID      string
	TeacherUID   string
	Title        string
	Description  string
	DueDate      string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type HomeworkSubmission struct {
	ID           string
	HomeworkID   string
	AcademicYear string
	ClassID      string
	StudentID    string
	ParentUID    string
	TeacherUID   string
	Text         string
	Status       string
	SubmittedAt  time.Time
	ReviewedAt   *time.Time
}

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusReviewed  = "reviewed"
)

// AttendanceDay is one register per (academicYear, classID, date), keyed
// "<academicYear>_<classID>_<date>".
type AttendanceDay struct {
	ID           string
	AcademicYear string
	ClassID      string
	Date         string
	TeacherUID   string
	Records      []AttendanceRecord
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AttendanceRecord struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
}

type Announcement struct {
	ID           string
	AcademicYear string
	ClassID      *string
	TeacherUID   string
	Title        string
	Content      string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Thread IDs take the form "<teacherID>_<enrollmentID>", which makes the
// thread unique per (academicYear, classId, teacherId, parentId, studentId).
type Thread struct {
	ID            string
	AcademicYear  string
	ClassID       string
	TeacherID     string
	ParentID      string
	StudentID     string
	EnrollmentID  string
	LastMessage   *string
	LastSenderID  *string
	UnreadTeacher int
	UnreadParent  int
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Message struct {
	ID        string
	ThreadID  string
	SenderID  string
	Title     *string
	Text      string
	CreatedAt time.Time
}
