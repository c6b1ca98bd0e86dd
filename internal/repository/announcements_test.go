package repository

import (
	"strings"
	"testing"

	"brightsteps/portal/internal/academicyear"
	"brightsteps/portal/internal/role"
	"brightsteps/portal/internal/scope"
)

func TestAnnouncementsListSQLEmptyScope(t *testing.T) {
	query, args := announcementsListSQL(scope.Spec{Kind: scope.Announcements}, "2025-2026", 100)

	if !strings.Contains(query, "class_id IS NULL AND academic_year = $1") {
		t.Fatalf("expected school-wide year restriction, got %q", query)
	}
	if strings.Contains(query, " OR ") {
		t.Fatalf("empty scope must not reach class-targeted rows, got %q", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected year and limit args, got %v", args)
	}
	if args[0] != "2025-2026" {
		t.Fatalf("expected year arg, got %v", args[0])
	}
}

func TestAnnouncementsListSQLClassScope(t *testing.T) {
	spec, err := scope.Build(scope.Announcements, role.Parent, "parent-1",
		academicyear.Year("2025-2026"), map[string]interface{}{"classIds": []string{"class-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query, args := announcementsListSQL(spec, "2025-2026", 50)
	if !strings.Contains(query, "class_id = ANY($2)") {
		t.Fatalf("expected class ownership condition, got %q", query)
	}
	if !strings.Contains(query, "class_id IS NULL AND academic_year = $3") {
		t.Fatalf("expected school-wide branch pinned to the year, got %q", query)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %v", args)
	}
}
