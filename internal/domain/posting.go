package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the origin system a posting was scraped from.
type Source string

const (
	SourceTelegram   Source = "telegram"
	SourceHeadHunter Source = "head_hunter"
	SourceHabr       Source = "habr"
)

// KnownSources lists every supported origin system.
var KnownSources = []Source{SourceTelegram, SourceHeadHunter, SourceHabr}

// Valid reports whether the source is one of the known origin systems.
func (s Source) Valid() bool {
	switch s {
	case SourceTelegram, SourceHeadHunter, SourceHabr:
		return true
	}
	return false
}

// Posting is a persisted vacancy posting. Postings are never deleted, only
// retired: once RetiredAt is set the posting drops out of ranking and of the
// near-duplicate candidate pool, but its identity key keeps guarding against
// re-insertion.
type Posting struct {
	ID          int64
	Source      Source
	IdentityKey string
	Fingerprint string
	Link        string
	RawText     string
	PublishedAt time.Time
	RetiredAt   *time.Time

	Profession  *CanonicalTag
	Grades      []CanonicalTag
	WorkFormats []CanonicalTag
	Skills      []CanonicalTag
}

// Live reports whether the posting participates in ranking.
func (p Posting) Live() bool { return p.RetiredAt == nil }

// CandidatePosting is an already-extracted posting handed to ingestion by the
// extraction stage. Tags arrive pre-resolved; the engine never resolves
// aliases itself.
type CandidatePosting struct {
	LocalID     string
	Link        string
	RawText     string
	PublishedAt time.Time

	Profession  *CanonicalTag
	Grades      []CanonicalTag
	WorkFormats []CanonicalTag
	Skills      []CanonicalTag
}

// Validate checks the fields ingestion cannot work without.
func (c CandidatePosting) Validate() error {
	if strings.TrimSpace(c.LocalID) == "" {
		return fmt.Errorf("%w: missing local id", ErrInvalidCandidate)
	}
	if strings.TrimSpace(c.Link) == "" {
		return fmt.Errorf("%w: missing link", ErrInvalidCandidate)
	}
	if strings.TrimSpace(c.RawText) == "" {
		return fmt.Errorf("%w: missing raw text", ErrInvalidCandidate)
	}
	if c.PublishedAt.IsZero() {
		return fmt.Errorf("%w: missing published time", ErrInvalidCandidate)
	}
	return nil
}

// IngestResult summarizes one ingestion run.
// Merged counts both in-batch merges and duplicates found against storage;
// Rejected counts candidates that failed validation.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Merged   int `json:"merged_as_duplicate"`
	Rejected int `json:"rejected"`
}

// Neighbors is the stateless pagination triple around a ranked posting.
// All fields are nil when the ranked list is empty or the cursor fell out
// of the list.
type Neighbors struct {
	PrevID  *int64   `json:"prev_id"`
	Current *Posting `json:"vacancy"`
	NextID  *int64   `json:"next_id"`
}
