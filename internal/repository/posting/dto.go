package posting

import "time"

// CandidateRow is the coarse-fetch projection the ranker scores in
// application code.
type CandidateRow struct {
	ID           int64
	PublishedAt  time.Time
	TotalSkills  int
	CommonSkills int
}
