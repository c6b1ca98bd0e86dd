// Package scope builds the filters every portal query must carry: the
// selected academic year for year-sensitive entities plus an ownership
// filter for non-admin callers. Unrecognized roles are refused outright —
// an unscoped query would leak data across tenants.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"brightsteps/portal/internal/academicyear"
	"brightsteps/portal/internal/role"
)

type Kind string

const (
	Students      Kind = "students"
	Classes       Kind = "classes"
	Enrollments   Kind = "enrollments"
	Payments      Kind = "payments"
	Homework      Kind = "homework"
	Submissions   Kind = "submissions"
	Attendance    Kind = "attendance"
	Announcements Kind = "announcements"
	Threads       Kind = "threads"
)

var (
	ErrUnknownRole      = errors.New("scope: unrecognized caller role")
	ErrRoleNotPermitted = errors.New("scope: role not permitted for entity kind")
	ErrMissingOwnership = errors.New("scope: transitive ownership filter missing")
	ErrInvalidYear      = errors.New("scope: invalid academic year")
)

type Condition struct {
	Field string
	Op    string // "=" or "IN"
	Value interface{}
}

type Spec struct {
	Kind       Kind
	Conditions []Condition
}

// yearSensitive marks kinds whose records carry an academic_year column.
// Students are year-independent; their enrollments are not.
var yearSensitive = map[Kind]bool{
	Classes:       true,
	Enrollments:   true,
	Payments:      true,
	Homework:      true,
	Submissions:   true,
	Attendance:    true,
	Announcements: true,
	Threads:       true,
}

// YearSensitive reports whether records of the kind carry an academic year.
func YearSensitive(kind Kind) bool {
	return yearSensitive[kind]
}

// passthroughFields limits caller-supplied filters to columns the kind's
// table actually carries.
var passthroughFields = map[Kind][]string{
	Enrollments:   {"class_id", "student_id", "status"},
	Payments:      {"student_id"},
	Homework:      {"class_id"},
	Submissions:   {"class_id", "student_id", "status"},
	Attendance:    {"class_id", "date"},
	Announcements: {"class_id"},
	Threads:       {"class_id", "student_id", "status"},
}

// Build assembles the query scope for one portal list/detail operation.
// extra carries caller-supplied filters (class, student, status, ...) plus
// the resolved class IDs for transitive parent ownership. The returned Spec
// always includes the selected year for year-sensitive kinds and an
// ownership condition for non-admin roles; it never silently widens.
func Build(kind Kind, callerRole role.Role, callerID string, selectedYear academicyear.Year, extra map[string]interface{}) (Spec, error) {
	normalized := role.Normalize(string(callerRole))
	if normalized == role.None || normalized == role.Unknown {
		return Spec{}, ErrUnknownRole
	}

	spec := Spec{Kind: kind}
	if yearSensitive[kind] {
		if !selectedYear.Valid() {
			return Spec{}, ErrInvalidYear
		}
		spec.Conditions = append(spec.Conditions, Condition{Field: "academic_year", Op: "=", Value: string(selectedYear)})
	}

	owner, err := ownershipCondition(kind, normalized, callerID, extra)
	if err != nil {
		return Spec{}, err
	}
	if owner != nil {
		spec.Conditions = append(spec.Conditions, *owner)
	}

	for _, field := range passthroughFields[kind] {
		if value, ok := extra[field]; ok {
			spec.Conditions = append(spec.Conditions, Condition{Field: field, Op: "=", Value: value})
		}
	}

	return spec, nil
}

func ownershipCondition(kind Kind, r role.Role, callerID string, extra map[string]interface{}) (*Condition, error) {
	switch r {
	case role.Admin, role.Superadmin:
		return nil, nil

	case role.ContentManager:
		// Content managers only ever query announcements, school-wide.
		if kind != Announcements {
			return nil, ErrRoleNotPermitted
		}
		return nil, nil

	case role.Teacher:
		switch kind {
		case Students:
			return nil, ErrRoleNotPermitted
		case Threads:
			return &Condition{Field: "teacher_id", Op: "=", Value: callerID}, nil
		case Classes, Homework, Submissions, Attendance, Announcements:
			return &Condition{Field: "teacher_uid", Op: "=", Value: callerID}, nil
		case Enrollments:
			// Enrollments do not carry the teacher; ownership flows through
			// the classes assigned to the teacher for the year.
			return classOwnership(extra)
		}

	case role.Parent:
		switch kind {
		case Threads:
			return &Condition{Field: "parent_id", Op: "=", Value: callerID}, nil
		case Students, Enrollments, Payments, Submissions:
			return &Condition{Field: "parent_uid", Op: "=", Value: callerID}, nil
		case Homework, Attendance, Announcements:
			// Visible through the classes the parent's children attend.
			return classOwnership(extra)
		case Classes:
			return nil, ErrRoleNotPermitted
		}
	}
	return nil, ErrUnknownRole
}

func classOwnership(extra map[string]interface{}) (*Condition, error) {
	raw, ok := extra["classIds"]
	if !ok {
		return nil, ErrMissingOwnership
	}
	classIDs, ok := raw.([]string)
	if !ok || len(classIDs) == 0 {
		return nil, ErrMissingOwnership
	}
	return &Condition{Field: "class_id", Op: "IN", Value: classIDs}, nil
}

// HasCondition reports whether the spec carries a condition on the field.
func (s Spec) HasCondition(field string) bool {
	for _, c := range s.Conditions {
		if c.Field == field {
			return true
		}
	}
	return false
}

// SQL renders the conditions as a WHERE fragment with positional arguments
// starting at argOffset+1. An empty fragment means no filtering (admin scope
// on a year-insensitive kind).
func (s Spec) SQL(argOffset int) (string, []interface{}) {
	if len(s.Conditions) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(s.Conditions))
	args := make([]interface{}, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		args = append(args, c.Value)
		placeholder := fmt.Sprintf("$%d", argOffset+len(args))
		if c.Op == "IN" {
			parts = append(parts, fmt.Sprintf("%s = ANY(%s)", c.Field, placeholder))
		} else {
			parts = append(parts, fmt.Sprintf("%s = %s", c.Field, placeholder))
		}
	}
	return strings.Join(parts, " AND "), args
}
