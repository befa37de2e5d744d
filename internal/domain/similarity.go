package domain

// TrigramSimilarity computes the Dice coefficient over 3-gram rune shingles
// of the two strings. It mirrors what the pg_trgm index does server-side and
// is used only for batch-local dedup, where candidates are not yet persisted
// and no index exists to ask.
//
// Result is in [0, 1]. Strings shorter than one trigram fall back to exact
// comparison.
func TrigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}

	sa := trigrams(a)
	sb := trigrams(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	var common int
	for g := range sa {
		if _, ok := sb[g]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(sa)+len(sb))
}

func trigrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 3 {
		return nil
	}
	set := make(map[string]struct{}, len(runes))
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}
