package role

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]Role{
		"superadmin":      Superadmin,
		"admin":           Admin,
		"teacher":         Teacher,
		"parent":          Parent,
		"content-manager": ContentManager,
		"none":            None,
		"":                None,
		"root":            Unknown,
		"ADMIN":           Unknown,
		"editor":          Unknown,
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Fatalf("Normalize(%q): expected %s, got %s", raw, want, got)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, r := range []Role{Superadmin, Admin, Teacher, Parent, ContentManager} {
		if !Known(r) {
			t.Fatalf("expected %s to be known", r)
		}
	}
	for _, r := range []Role{None, Unknown, Role("root")} {
		if Known(r) {
			t.Fatalf("expected %s to be unknown", r)
		}
	}
}

func TestDisplayNameNeverEchoesRaw(t *testing.T) {
	if got := DisplayName(Role("h4x0r")); got != "Unknown role" {
		t.Fatalf("expected sanitized name, got %q", got)
	}
	if got := DisplayName(Teacher); got != "Teacher" {
		t.Fatalf("expected Teacher, got %q", got)
	}
}

func TestPermissionMatrix(t *testing.T) {
	if CanEditUser(Admin, Superadmin) {
		t.Fatalf("nobody edits superadmins")
	}
	if CanEditUser(Superadmin, Superadmin) {
		t.Fatalf("superadmin accounts are immutable")
	}
	if CanEditUser(Admin, Admin) {
		t.Fatalf("admins must not edit admin accounts")
	}
	if !CanEditUser(Superadmin, Admin) {
		t.Fatalf("superadmin may edit admin accounts")
	}
	if !CanEditUser(Admin, Teacher) {
		t.Fatalf("admin may edit teacher accounts")
	}
	if CanEditUser(Teacher, Parent) {
		t.Fatalf("teachers cannot manage users")
	}
	if !CanManageStudents(Superadmin) || !CanManageStudents(Admin) {
		t.Fatalf("admins manage students")
	}
	if CanManageStudents(Teacher) || CanManageEnrollments(Parent) {
		t.Fatalf("non-admins must not manage students or enrollments")
	}
}
