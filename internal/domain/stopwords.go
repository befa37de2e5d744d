package domain

import "strings"

// defaultStopwords are common filler words that do not discriminate between
// postings. Russian first (the dominant corpus language), then English.
var defaultStopwords = NewStopwords(
	"и", "в", "на", "с", "со", "по", "для", "от", "до", "не", "но",
	"что", "как", "это", "а", "о", "об", "у", "за", "из", "к", "ко",
	"мы", "вы", "или", "при", "же", "бы", "также", "еще", "уже",
	"a", "an", "the", "and", "or", "of", "to", "in", "on", "for",
	"with", "at", "by", "is", "are", "be", "as", "we", "you",
	"our", "your", "will", "this", "that",
)

// NewStopwords builds a lookup set from word lists, lowercasing entries so
// the set matches post-normalization tokens.
func NewStopwords(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
