package sdk

import "time"

// Source identifies a scrape origin, mirroring the server's source enum.
type Source string

const (
	SourceTelegram   Source = "telegram"
	SourceHeadHunter Source = "head_hunter"
	SourceHabr       Source = "habr"
)

// Candidate is one extracted posting submitted for ingestion.
type Candidate struct {
	LocalID     string    `json:"local_id"`
	Link        string    `json:"link"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`

	Profession  *string  `json:"profession,omitempty"`
	Grades      []string `json:"grades,omitempty"`
	WorkFormats []string `json:"work_formats,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// IngestResult summarizes one accepted ingestion batch.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Merged   int `json:"merged_as_duplicate"`
	Rejected int `json:"rejected"`
}

// MatchRequest describes matching criteria and an optional cursor.
type MatchRequest struct {
	Skills      []string `json:"skills"`
	Professions []string `json:"professions,omitempty"`
	Grades      []string `json:"grades,omitempty"`
	WorkFormats []string `json:"work_formats,omitempty"`
	Sources     []string `json:"sources,omitempty"`

	// CurrentVacancyID is the cursor; nil starts at the top of the ranking.
	CurrentVacancyID *int64 `json:"current_vacancy_id,omitempty"`
}

// Vacancy is one posting in a match response.
type Vacancy struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	Link        string    `json:"link"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`

	Profession  *string  `json:"profession,omitempty"`
	Grades      []string `json:"grades,omitempty"`
	WorkFormats []string `json:"work_formats,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// MatchWindow is the cursor-relative result triple. All fields are nil when
// nothing matches or the cursor fell out of the ranking.
type MatchWindow struct {
	PrevID  *int64   `json:"prev_id"`
	Vacancy *Vacancy `json:"vacancy"`
	NextID  *int64   `json:"next_id"`
}

type matchResponse struct {
	Result MatchWindow `json:"result"`
}

type lastPublishedResponse struct {
	PublishedAt *time.Time `json:"published_at"`
}

// Health is the aggregated server health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
