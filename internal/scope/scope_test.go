package scope

import (
	"errors"
	"testing"

	"brightsteps/portal/internal/academicyear"
	"brightsteps/portal/internal/role"
)

const year = academicyear.Year("2025-2026")

func TestParentQueriesCarryYearAndOwnership(t *testing.T) {
	for _, kind := range []Kind{Enrollments, Payments, Submissions} {
		spec, err := Build(kind, role.Parent, "parent-1", year, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if !spec.HasCondition("academic_year") {
			t.Fatalf("%s: expected academic_year condition", kind)
		}
		if !spec.HasCondition("parent_uid") {
			t.Fatalf("%s: expected parent ownership condition", kind)
		}
	}
}

func TestUnknownRoleRefused(t *testing.T) {
	for _, r := range []role.Role{role.Role("unknown-value"), role.None, role.Unknown, role.Role("")} {
		if _, err := Build(Payments, r, "user-1", year, nil); !errors.Is(err, ErrUnknownRole) {
			t.Fatalf("role %q: expected ErrUnknownRole, got %v", r, err)
		}
	}
}

func TestAdminUnfilteredButYearScoped(t *testing.T) {
	spec, err := Build(Enrollments, role.Admin, "admin-1", year, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasCondition("academic_year") {
		t.Fatalf("expected academic_year condition")
	}
	if spec.HasCondition("parent_uid") || spec.HasCondition("teacher_uid") {
		t.Fatalf("admin scope must not carry ownership filters")
	}
}

func TestTeacherOwnership(t *testing.T) {
	spec, err := Build(Homework, role.Teacher, "teacher-1", year, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasCondition("teacher_uid") || !spec.HasCondition("academic_year") {
		t.Fatalf("expected teacher ownership and year conditions, got %+v", spec.Conditions)
	}

	spec, err = Build(Threads, role.Teacher, "teacher-1", year, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasCondition("teacher_id") {
		t.Fatalf("thread ownership uses teacher_id, got %+v", spec.Conditions)
	}
}

func TestTransitiveOwnershipRequiresClassIDs(t *testing.T) {
	if _, err := Build(Attendance, role.Parent, "parent-1", year, nil); !errors.Is(err, ErrMissingOwnership) {
		t.Fatalf("expected ErrMissingOwnership, got %v", err)
	}
	if _, err := Build(Attendance, role.Parent, "parent-1", year, map[string]interface{}{"classIds": []string{}}); !errors.Is(err, ErrMissingOwnership) {
		t.Fatalf("expected ErrMissingOwnership for empty class set, got %v", err)
	}
	spec, err := Build(Attendance, role.Parent, "parent-1", year, map[string]interface{}{"classIds": []string{"class-1", "class-2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasCondition("class_id") {
		t.Fatalf("expected class ownership condition")
	}
}

func TestContentManagerLimitedToAnnouncements(t *testing.T) {
	if _, err := Build(Payments, role.ContentManager, "cm-1", year, nil); !errors.Is(err, ErrRoleNotPermitted) {
		t.Fatalf("expected ErrRoleNotPermitted, got %v", err)
	}
	if _, err := Build(Announcements, role.ContentManager, "cm-1", year, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvalidYearRefused(t *testing.T) {
	if _, err := Build(Enrollments, role.Admin, "admin-1", academicyear.Year("2025"), nil); !errors.Is(err, ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
}

func TestStudentsAreYearInsensitive(t *testing.T) {
	spec, err := Build(Students, role.Parent, "parent-1", academicyear.Year("bogus"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.HasCondition("academic_year") {
		t.Fatalf("students must not be year filtered")
	}
	if !spec.HasCondition("parent_uid") {
		t.Fatalf("expected parent ownership condition")
	}
}

func TestQueryFiltersWhitelistedPerKind(t *testing.T) {
	spec, err := Build(Students, role.Parent, "parent-1", year, map[string]interface{}{
		"date":   "2025-01-01",
		"status": "enrolled",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.HasCondition("date") || spec.HasCondition("status") {
		t.Fatalf("students carry no date or status column, got %+v", spec.Conditions)
	}

	spec, err = Build(Attendance, role.Teacher, "teacher-1", year, map[string]interface{}{
		"date":   "2025-01-01",
		"status": "present",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spec.HasCondition("date") {
		t.Fatalf("expected date filter on attendance, got %+v", spec.Conditions)
	}
	if spec.HasCondition("status") {
		t.Fatalf("attendance days carry no status column, got %+v", spec.Conditions)
	}
}

func TestSQLRendering(t *testing.T) {
	spec, err := Build(Homework, role.Parent, "parent-1", year, map[string]interface{}{
		"classIds": []string{"class-1"},
		"class_id": "class-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	where, args := spec.SQL(1)
	if where == "" {
		t.Fatalf("expected a WHERE fragment")
	}
	if len(args) != len(spec.Conditions) {
		t.Fatalf("expected %d args, got %d", len(spec.Conditions), len(args))
	}
	for i := range args {
		placeholder := "$" + string(rune('0'+i+2))
		if !containsPlaceholder(where, placeholder) {
			t.Fatalf("expected placeholder %s in %q", placeholder, where)
		}
	}
}

func containsPlaceholder(where, placeholder string) bool {
	for i := 0; i+len(placeholder) <= len(where); i++ {
		if where[i:i+len(placeholder)] == placeholder {
			return true
		}
	}
	return false
}
