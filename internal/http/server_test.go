package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brightsteps/portal/internal/academicyear"
	"brightsteps/portal/internal/auth"
	"brightsteps/portal/internal/config"
	"brightsteps/portal/internal/repository"
	"brightsteps/portal/internal/scope"
	"brightsteps/portal/internal/yearctx"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:       ":0",
		JWTSecret:      "test-secret",
		JWTIssuer:      "test-issuer",
		AccessTokenTTL: 15 * time.Minute,
		YearsBack:      3,
		YearsForward:   2,
	}
}

// newTestServer wires a server with an in-memory year store and no database.
// Only routes that never touch postgres may be exercised through it.
func newTestServer(cfg config.Config) *Server {
	years := yearctx.NewManager(yearctx.NewMemoryStore(), nil, cfg.YearsBack, cfg.YearsForward)
	return NewServer(cfg, repository.NewStore(nil), years, nil)
}

func mustToken(t *testing.T, cfg config.Config, userID, userRole string) string {
	t.Helper()
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, 10*time.Minute, auth.Claims{
		UserID: userID,
		Email:  userID + "@example.local",
		Role:   userRole,
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func doReq(t *testing.T, handler http.Handler, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPortalGateRejections(t *testing.T) {
	cfg := testConfig()
	router := newTestServer(cfg).Router()

	// No token at all.
	rec := doReq(t, router, http.MethodGet, "/admin/students/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// A parent on the admin surface.
	parentToken := mustToken(t, cfg, "parent-1", "parent")
	rec = doReq(t, router, http.MethodGet, "/admin/students/", parentToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload["error"] != "role_mismatch" {
		t.Fatalf("expected role_mismatch, got %s", payload["error"])
	}

	// A token with no role claim.
	noRoleToken := mustToken(t, cfg, "user-1", "")
	rec = doReq(t, router, http.MethodGet, "/admin/students/", noRoleToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload["error"] != "role_absent" {
		t.Fatalf("expected role_absent, got %s", payload["error"])
	}

	// An out-of-set role never echoes back raw; it mismatches.
	unknownToken := mustToken(t, cfg, "user-2", "hacker")
	rec = doReq(t, router, http.MethodGet, "/teacher-portal/homework/", unknownToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestContentManagerNarrowing(t *testing.T) {
	cfg := testConfig()
	router := newTestServer(cfg).Router()

	// Content managers pass the admin gate but stop at the users subtree.
	token := mustToken(t, cfg, "cm-1", "content-manager")
	rec := doReq(t, router, http.MethodGet, "/admin/users/", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload["error"] != "forbidden" {
		t.Fatalf("expected forbidden, got %s", payload["error"])
	}
}

func TestAcademicYearEndpoints(t *testing.T) {
	cfg := testConfig()
	router := newTestServer(cfg).Router()
	token := mustToken(t, cfg, "admin-1", "admin")

	rec := doReq(t, router, http.MethodGet, "/academic-years/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listResp academicYearsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	current := academicyear.Current(time.Now())
	if listResp.Current != current {
		t.Fatalf("expected current %s, got %s", current, listResp.Current)
	}
	if listResp.Selected != current {
		t.Fatalf("expected default selection %s, got %s", current, listResp.Selected)
	}
	if len(listResp.Window) != cfg.YearsBack+cfg.YearsForward+1 {
		t.Fatalf("expected %d window years, got %d", cfg.YearsBack+cfg.YearsForward+1, len(listResp.Window))
	}

	// Select an earlier year from the window.
	earlier := listResp.Window[0]
	rec = doReq(t, router, http.MethodPut, "/academic-years/selected", token, map[string]string{"year": string(earlier)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doReq(t, router, http.MethodGet, "/academic-years/selected", token, nil)
	var selResp map[string]academicyear.Year
	if err := json.Unmarshal(rec.Body.Bytes(), &selResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if selResp["selected"] != earlier {
		t.Fatalf("expected %s, got %s", earlier, selResp["selected"])
	}

	// A year outside the window is refused.
	rec = doReq(t, router, http.MethodPut, "/academic-years/selected", token, map[string]string{"year": "1999-2000"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	// Reset returns to the current year.
	rec = doReq(t, router, http.MethodDelete, "/academic-years/selected", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doReq(t, router, http.MethodGet, "/academic-years/selected", token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &selResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if selResp["selected"] != current {
		t.Fatalf("expected %s after reset, got %s", current, selResp["selected"])
	}
}

func TestScopeErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{scope.ErrUnknownRole, http.StatusForbidden, "scoping_refused"},
		{scope.ErrRoleNotPermitted, http.StatusForbidden, "forbidden"},
		{scope.ErrMissingOwnership, http.StatusForbidden, "forbidden"},
		{scope.ErrInvalidYear, http.StatusBadRequest, "invalid_academic_year"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeScopeError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload["error"] != tc.code {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.code, payload["error"])
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer a b":  "a b",
		"Bearer  abc": "abc",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("bearerToken(%q) = %q, expected %q", header, got, expect)
		}
	}
}

func TestQueryLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=25", nil)
	if got := queryLimit(req, 100); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/x?limit=-5", nil)
	if got := queryLimit(req, 100); got != 100 {
		t.Fatalf("expected fallback 100, got %d", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := queryLimit(req, 100); got != 100 {
		t.Fatalf("expected fallback 100, got %d", got)
	}
}
