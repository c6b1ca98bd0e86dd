// Package gate decides whether an identity may enter a portal. The decision
// is recomputed on every request; nothing here is persisted.
package gate

import (
	"brightsteps/portal/internal/role"
)

type State string

const (
	CheckingAuth    State = "checking_auth"
	Unauthenticated State = "unauthenticated"
	CheckingRole    State = "checking_role"
	RoleAbsent      State = "role_absent"
	RoleMismatch    State = "role_mismatch"
	Allowed         State = "allowed"
)

// Portal identifies one of the role-specific application surfaces.
type Portal string

const (
	PortalAdmin   Portal = "admin"
	PortalTeacher Portal = "teacher-portal"
	PortalParent  Portal = "parent-portal"
)

// AcceptedRoles is the role-to-portal mapping. It is configuration, not
// behavior: content managers are admitted to the admin surface for content
// routes, and the per-route permission checks narrow further from there.
var AcceptedRoles = map[Portal][]role.Role{
	PortalAdmin:   {role.Admin, role.Superadmin, role.ContentManager},
	PortalTeacher: {role.Teacher},
	PortalParent:  {role.Parent},
}

// LoginRoute is where an unauthenticated caller is redirected, exactly once
// per evaluation.
func LoginRoute(p Portal) string {
	if p == PortalAdmin {
		return "/admin/login"
	}
	return "/login"
}

// Decision is the terminal outcome of one gate evaluation. SanitizedRole is
// always a member of the closed role set; Retryable marks claim-resolution
// failures where the caller should be offered an explicit retry.
type Decision struct {
	State         State
	SanitizedRole role.Role
	RedirectTo    string
	Retryable     bool
}

// Input captures one portal page load: whether identity resolution finished,
// whether it produced an identity, and the outcome of role-claim resolution.
type Input struct {
	AuthResolved  bool
	Authenticated bool
	ClaimErr      error
	Role          role.Role
}

// Evaluate runs the gate state machine to its terminal state (or to
// CheckingAuth while identity resolution is still in flight). No entity data
// may be fetched unless the result is Allowed.
func Evaluate(p Portal, in Input) Decision {
	if !in.AuthResolved {
		return Decision{State: CheckingAuth}
	}
	if !in.Authenticated {
		return Decision{State: Unauthenticated, RedirectTo: LoginRoute(p)}
	}
	if in.ClaimErr != nil {
		return Decision{State: RoleAbsent, SanitizedRole: role.None, Retryable: true}
	}
	r := role.Normalize(string(in.Role))
	if r == role.None {
		return Decision{State: RoleAbsent, SanitizedRole: role.None}
	}
	for _, accepted := range AcceptedRoles[p] {
		if r == accepted {
			return Decision{State: Allowed, SanitizedRole: r}
		}
	}
	return Decision{State: RoleMismatch, SanitizedRole: r}
}
