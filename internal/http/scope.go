package http

import (
	"errors"
	"net/http"

	"brightsteps/portal/internal/auth"
	"brightsteps/portal/internal/role"
	"brightsteps/portal/internal/scope"
)

// errEmptyScope marks a caller whose transitive ownership set is empty: a
// teacher with no classes or a parent with no enrolled children. The right
// answer is an empty list, never an unscoped query.
var errEmptyScope = errors.New("http: ownership scope is empty")

// buildScope assembles the query scope for the caller: selected year,
// ownership filter, plus whitelisted query-string filters.
func (s *Server) buildScope(r *http.Request, claims *auth.Claims, kind scope.Kind) (scope.Spec, error) {
	ctx := r.Context()
	year := s.years.Selected(ctx, claims.UserID)
	callerRole := claims.PortalRole()

	extra := map[string]interface{}{}
	query := r.URL.Query()
	for _, field := range []string{"class_id", "student_id", "status", "date"} {
		if value := query.Get(field); value != "" {
			extra[field] = value
		}
	}

	needsClassIDs := callerRole == role.Teacher && kind == scope.Enrollments ||
		callerRole == role.Parent && (kind == scope.Homework || kind == scope.Attendance || kind == scope.Announcements)
	if needsClassIDs {
		var classIDs []string
		var err error
		if callerRole == role.Teacher {
			classIDs, err = s.store.TeacherClassIDs(ctx, claims.UserID, string(year))
		} else {
			classIDs, err = s.store.ParentClassIDs(ctx, claims.UserID, string(year))
		}
		if err != nil {
			return scope.Spec{}, err
		}
		if len(classIDs) == 0 {
			return scope.Spec{}, errEmptyScope
		}
		extra["classIds"] = classIDs
	}

	return scope.Build(kind, callerRole, claims.UserID, year, extra)
}

func writeScopeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scope.ErrUnknownRole):
		writeError(w, http.StatusForbidden, "scoping_refused")
	case errors.Is(err, scope.ErrRoleNotPermitted), errors.Is(err, scope.ErrMissingOwnership):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, scope.ErrInvalidYear):
		writeError(w, http.StatusBadRequest, "invalid_academic_year")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
