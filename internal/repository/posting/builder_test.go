package posting

import (
	"strings"
	"testing"
	"time"

	"github.com/hirewire/vacmatch/internal/domain"
)

func TestBuildCandidateQuery_NoFilters(t *testing.T) {
	since := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	criteria := domain.MatchCriteria{Skills: []domain.CanonicalTag{"python", "django"}}

	sql, args := buildCandidateQuery(criteria, since, 60)

	if len(args) != 3 {
		t.Fatalf("expected 3 args (skills, since, percent), got %d", len(args))
	}
	if strings.Contains(sql, "p.source = ANY") {
		t.Error("source filter must not appear for empty source set")
	}
	if strings.Contains(sql, "EXISTS") {
		t.Error("tag family filters must not appear for empty sets")
	}
	if !strings.Contains(sql, "sc.common_skills > 0") {
		t.Error("zero-overlap exclusion clause missing")
	}
	if !strings.Contains(sql, "p.retired_at IS NULL") {
		t.Error("retired exclusion clause missing")
	}
	if !strings.Contains(sql, ">= $3") {
		t.Error("min similarity percent must bind the last placeholder")
	}
}

func TestBuildCandidateQuery_AllFilters(t *testing.T) {
	criteria := domain.MatchCriteria{
		Skills:      []domain.CanonicalTag{"go"},
		Professions: []domain.CanonicalTag{"backend"},
		Grades:      []domain.CanonicalTag{"senior"},
		WorkFormats: []domain.CanonicalTag{"remote"},
		Sources:     []domain.Source{domain.SourceTelegram},
	}

	sql, args := buildCandidateQuery(criteria, time.Now(), 60)

	// skills, since, sources, profession, grade, work_format, percent
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	for _, want := range []string{
		"p.source = ANY($3::text[])",
		"ft.family = 'profession' AND ft.tag = ANY($4::text[])",
		"ft.family = 'grade' AND ft.tag = ANY($5::text[])",
		"ft.family = 'work_format' AND ft.tag = ANY($6::text[])",
		">= $7",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("query missing %q:\n%s", want, sql)
		}
	}
}

func TestBuildCandidateQuery_PlaceholderNumberingSkipsEmptySets(t *testing.T) {
	criteria := domain.MatchCriteria{
		Skills: []domain.CanonicalTag{"go"},
		Grades: []domain.CanonicalTag{"junior"},
	}

	sql, args := buildCandidateQuery(criteria, time.Now(), 50)

	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if !strings.Contains(sql, "ft.family = 'grade' AND ft.tag = ANY($3::text[])") {
		t.Errorf("grade filter must take placeholder $3 when sources/professions are empty:\n%s", sql)
	}
	if !strings.Contains(sql, ">= $4") {
		t.Errorf("percent must take placeholder $4:\n%s", sql)
	}
}
