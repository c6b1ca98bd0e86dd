// Package role defines the closed set of portal roles and the boundary
// normalization that keeps unrecognized claim values out of the rest of
// the system.
package role

type Role string

const (
	Superadmin     Role = "superadmin"
	Admin          Role = "admin"
	Teacher        Role = "teacher"
	Parent         Role = "parent"
	ContentManager Role = "content-manager"
	None           Role = "none"
	Unknown        Role = "unknown"
)

// Normalize maps a raw claim value into the closed set. Anything outside it
// becomes Unknown; an empty claim means the account has no provisioned role.
func Normalize(raw string) Role {
	switch Role(raw) {
	case Superadmin, Admin, Teacher, Parent, ContentManager:
		return Role(raw)
	case None, "":
		return None
	default:
		return Unknown
	}
}

// Known reports whether r is a provisioned portal role.
func Known(r Role) bool {
	switch r {
	case Superadmin, Admin, Teacher, Parent, ContentManager:
		return true
	}
	return false
}

// DisplayName is the user-facing description. Unrecognized values are always
// reported as "Unknown role", never echoed raw.
func DisplayName(r Role) string {
	switch r {
	case Superadmin:
		return "Super Admin"
	case Admin:
		return "Admin"
	case Teacher:
		return "Teacher"
	case Parent:
		return "Parent"
	case ContentManager:
		return "Content Manager"
	case None:
		return "No role assigned"
	default:
		return "Unknown role"
	}
}

// CanEditUser implements the user-management permission matrix: superadmin
// accounts are immutable through the API, and only superadmins may touch
// admin accounts.
func CanEditUser(editor, target Role) bool {
	if target == Superadmin {
		return false
	}
	if target == Admin && editor != Superadmin {
		return false
	}
	return editor == Superadmin || editor == Admin
}

// CanManageStudents reports whether r may create or modify student records.
func CanManageStudents(r Role) bool {
	return r == Admin || r == Superadmin
}

// CanManageEnrollments reports whether r may create or modify enrollments.
func CanManageEnrollments(r Role) bool {
	return r == Admin || r == Superadmin
}
