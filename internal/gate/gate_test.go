package gate

import (
	"errors"
	"testing"

	"brightsteps/portal/internal/role"
)

func TestUnresolvedAuthKeepsChecking(t *testing.T) {
	d := Evaluate(PortalAdmin, Input{})
	if d.State != CheckingAuth {
		t.Fatalf("expected checking_auth, got %s", d.State)
	}
}

func TestNoIdentityNeverAllowed(t *testing.T) {
	for _, p := range []Portal{PortalAdmin, PortalTeacher, PortalParent} {
		for _, r := range []role.Role{role.Admin, role.Teacher, role.Parent, role.None} {
			d := Evaluate(p, Input{AuthResolved: true, Authenticated: false, Role: r})
			if d.State != Unauthenticated {
				t.Fatalf("portal %s role %s: expected unauthenticated, got %s", p, r, d.State)
			}
			if d.RedirectTo == "" {
				t.Fatalf("portal %s: expected a login redirect", p)
			}
		}
	}
}

func TestTeacherOnAdminPortalMismatches(t *testing.T) {
	d := Evaluate(PortalAdmin, Input{AuthResolved: true, Authenticated: true, Role: role.Teacher})
	if d.State != RoleMismatch {
		t.Fatalf("expected role_mismatch, got %s", d.State)
	}
	if d.SanitizedRole != role.Teacher {
		t.Fatalf("expected sanitized teacher role, got %s", d.SanitizedRole)
	}
}

func TestAcceptedRolesAllowed(t *testing.T) {
	cases := []struct {
		portal Portal
		r      role.Role
	}{
		{PortalAdmin, role.Admin},
		{PortalAdmin, role.Superadmin},
		{PortalAdmin, role.ContentManager},
		{PortalTeacher, role.Teacher},
		{PortalParent, role.Parent},
	}
	for _, c := range cases {
		d := Evaluate(c.portal, Input{AuthResolved: true, Authenticated: true, Role: c.r})
		if d.State != Allowed {
			t.Fatalf("portal %s role %s: expected allowed, got %s", c.portal, c.r, d.State)
		}
	}
}

func TestClaimErrorIsRetryableRoleAbsent(t *testing.T) {
	d := Evaluate(PortalTeacher, Input{AuthResolved: true, Authenticated: true, ClaimErr: errors.New("network")})
	if d.State != RoleAbsent || !d.Retryable {
		t.Fatalf("expected retryable role_absent, got %+v", d)
	}
}

func TestMissingRoleIsTerminalRoleAbsent(t *testing.T) {
	d := Evaluate(PortalParent, Input{AuthResolved: true, Authenticated: true, Role: role.None})
	if d.State != RoleAbsent || d.Retryable {
		t.Fatalf("expected non-retryable role_absent, got %+v", d)
	}
}

func TestUnknownRoleSanitized(t *testing.T) {
	d := Evaluate(PortalAdmin, Input{AuthResolved: true, Authenticated: true, Role: role.Role("root")})
	if d.State != RoleMismatch {
		t.Fatalf("expected role_mismatch, got %s", d.State)
	}
	if d.SanitizedRole != role.Unknown {
		t.Fatalf("expected sanitized unknown role, got %s", d.SanitizedRole)
	}
}
