package domain

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxFingerprintBytes bounds the fingerprint length so it stays indexable by
// the pg_trgm GiST index over the fingerprint column.
const MaxFingerprintBytes = 2704

var (
	reHashtag    = regexp.MustCompile(`#[\pL\pN_]+\s*`)
	reURL        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	reDisallowed = regexp.MustCompile(`[^а-яa-z0-9/;().\s]`)
)

// Fingerprint normalizes raw posting text into an order-independent token
// signature. Two postings describing the same role reposted with different
// hashtags or word order collapse to the same (or a highly similar)
// fingerprint, which is what the near-duplicate lookup keys on.
//
// Pipeline: strip hashtag tokens and URLs, lowercase, drop every character
// outside the posting-relevant allow-list, split on whitespace, drop
// stopwords, sort tokens, join with single spaces, truncate to
// MaxFingerprintBytes at a rune boundary.
func Fingerprint(text string) string {
	return FingerprintWith(text, defaultStopwords, MaxFingerprintBytes)
}

// FingerprintWith is Fingerprint with an explicit stopword set and byte
// limit, for configurations that tune either. A nil stopword set falls back
// to the package default.
func FingerprintWith(text string, stopwords map[string]struct{}, maxBytes int) string {
	if stopwords == nil {
		stopwords = defaultStopwords
	}
	text = reHashtag.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	text = reDisallowed.ReplaceAllString(strings.ToLower(text), "")

	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	sort.Strings(kept)

	return truncateBytes(strings.Join(kept, " "), maxBytes)
}

// truncateBytes cuts s so its UTF-8 encoding fits maxBytes, never splitting
// a multi-byte rune.
func truncateBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
