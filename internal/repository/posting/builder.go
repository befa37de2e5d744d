package posting

import (
	"fmt"
	"strings"
	"time"

	"github.com/hirewire/vacmatch/internal/domain"
)

// buildCandidateQuery assembles the candidate-fetch SQL for the given
// criteria. Filter clauses are appended only for non-empty sets, numbering
// placeholders as they go; empty sets impose no constraint.
func buildCandidateQuery(
	criteria domain.MatchCriteria, since time.Time, minSimilarityPercent float64,
) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT p.id, p.published_at, sc.total_skills, sc.common_skills
		FROM (
			SELECT pt.posting_id,
			       COUNT(*) AS total_skills,
			       COUNT(*) FILTER (WHERE pt.tag = ANY($1::text[])) AS common_skills
			FROM posting_tags pt
			WHERE pt.family = 'skill'
			GROUP BY pt.posting_id
		) sc
		JOIN postings p ON p.id = sc.posting_id
		WHERE p.retired_at IS NULL
		  AND p.published_at >= $2
		  AND sc.common_skills > 0`)

	args := []any{tagStrings(criteria.Skills), since}
	idx := 3

	if len(criteria.Sources) > 0 {
		fmt.Fprintf(&b, "\n\t\t  AND p.source = ANY($%d::text[])", idx)
		args = append(args, sourceStrings(criteria.Sources))
		idx++
	}

	for _, f := range []struct {
		family domain.TagFamily
		tags   []domain.CanonicalTag
	}{
		{domain.FamilyProfession, criteria.Professions},
		{domain.FamilyGrade, criteria.Grades},
		{domain.FamilyWorkFormat, criteria.WorkFormats},
	} {
		if len(f.tags) == 0 {
			continue
		}
		fmt.Fprintf(&b,
			"\n\t\t  AND EXISTS (SELECT 1 FROM posting_tags ft WHERE ft.posting_id = p.id AND ft.family = '%s' AND ft.tag = ANY($%d::text[]))",
			f.family, idx)
		args = append(args, tagStrings(f.tags))
		idx++
	}

	fmt.Fprintf(&b, "\n\t\t  AND sc.common_skills * 100.0 / sc.total_skills >= $%d", idx)
	args = append(args, minSimilarityPercent)

	return b.String(), args
}

func tagStrings(tags []domain.CanonicalTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func sourceStrings(sources []domain.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}
