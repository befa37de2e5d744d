package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// MatchCriteria describes one user's matching request. Skills drive the
// ranking and must be non-empty for any result to be produced; the remaining
// sets are conjunctive eligibility filters, each ignored when empty.
type MatchCriteria struct {
	Skills      []CanonicalTag
	Professions []CanonicalTag
	Grades      []CanonicalTag
	WorkFormats []CanonicalTag
	Sources     []Source
}

// Empty reports whether the criteria can produce any ranking at all.
// Matching is skill-driven: no skills, no result.
func (c MatchCriteria) Empty() bool { return len(c.Skills) == 0 }

// Normalize returns a copy with every set sorted and deduplicated. Two
// semantically identical requests normalize to identical values regardless
// of input ordering, which CacheKey depends on.
func (c MatchCriteria) Normalize() MatchCriteria {
	sources := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		sources[i] = string(s)
	}
	normSources := normalizeSet(sources)

	out := MatchCriteria{
		Skills:      normalizeTags(c.Skills),
		Professions: normalizeTags(c.Professions),
		Grades:      normalizeTags(c.Grades),
		WorkFormats: normalizeTags(c.WorkFormats),
		Sources:     make([]Source, len(normSources)),
	}
	for i, s := range normSources {
		out.Sources[i] = Source(s)
	}
	return out
}

// CacheKey returns a canonical, order-independent digest of the criteria,
// suitable as a shared cache key for the ranked result.
func (c MatchCriteria) CacheKey() string {
	n := c.Normalize()

	var b strings.Builder
	writeSet := func(family string, tags []CanonicalTag) {
		b.WriteString(family)
		b.WriteByte('=')
		for i, t := range tags {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(string(t))
		}
		b.WriteByte(';')
	}
	writeSet("skills", n.Skills)
	writeSet("professions", n.Professions)
	writeSet("grades", n.Grades)
	writeSet("work_formats", n.WorkFormats)

	b.WriteString("sources=")
	for i, s := range n.Sources {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(s))
	}

	h := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(h[:])
}

func normalizeTags(tags []CanonicalTag) []CanonicalTag {
	strs := make([]string, len(tags))
	for i, t := range tags {
		strs[i] = string(t)
	}
	norm := normalizeSet(strs)
	out := make([]CanonicalTag, len(norm))
	for i, s := range norm {
		out[i] = CanonicalTag(s)
	}
	return out
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
