// Package chi exposes the vacancy matching HTTP API. Handlers only decode,
// delegate and encode; all semantics live in the usecase layer.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/domain"
	healthuc "github.com/hirewire/vacmatch/internal/usecase/health"
)

// Matcher answers match requests with a cursor-relative result window.
type Matcher interface {
	Relevant(ctx context.Context, criteria domain.MatchCriteria, currentID *int64) (domain.Neighbors, error)
}

// Ingester accepts scraped posting batches.
type Ingester interface {
	Ingest(ctx context.Context, source domain.Source, batch []domain.CandidatePosting) (domain.IngestResult, error)
	LastPublishedAt(ctx context.Context, source domain.Source) (time.Time, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorCode is the machine-readable error discriminator in error responses.
type errorCode string

const (
	codeBadRequest    errorCode = "bad_request"
	codeUnknownSource errorCode = "unknown_source"
	codeNotFound      errorCode = "not_found"
	codeUnauthorized  errorCode = "unauthorized"
	codeInternalError errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// Server implements the HTTP handlers.
type Server struct {
	matcher Matcher
	ingest  Ingester
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(matcher Matcher, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{matcher: matcher, ingest: ingest, health: health, logger: logger}
}

// Routes mounts every handler on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/vacancies/match", s.MatchVacancies)
	r.Post("/api/v1/vacancies/ingest", s.IngestVacancies)
	r.Get("/api/v1/sources/{source}/last-published", s.LastPublished)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type matchRequest struct {
	Skills      []string `json:"skills"`
	Professions []string `json:"professions,omitempty"`
	Grades      []string `json:"grades,omitempty"`
	WorkFormats []string `json:"work_formats,omitempty"`
	Sources     []string `json:"sources,omitempty"`

	// CurrentVacancyID is the pagination cursor; absent means "start at the top".
	CurrentVacancyID *int64 `json:"current_vacancy_id,omitempty"`
}

type vacancyResponse struct {
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

type matchResponse struct {
	Result neighborsResponse `json:"result"`
}

type neighborsResponse struct {
	PrevID  *int64           `json:"prev_id"`
	Vacancy *vacancyResponse `json:"vacancy"`
	NextID  *int64           `json:"next_id"`
}

// MatchVacancies handles POST /api/v1/vacancies/match.
func (s *Server) MatchVacancies(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	criteria := domain.MatchCriteria{
		Skills:      toTags(req.Skills),
		Professions: toTags(req.Professions),
		Grades:      toTags(req.Grades),
		WorkFormats: toTags(req.WorkFormats),
	}
	for _, src := range req.Sources {
		source := domain.Source(src)
		if !source.Valid() {
			writeError(w, http.StatusBadRequest, codeUnknownSource, "Unknown source: "+src)
			return
		}
		criteria.Sources = append(criteria.Sources, source)
	}

	n, err := s.matcher.Relevant(r.Context(), criteria, req.CurrentVacancyID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := matchResponse{Result: neighborsResponse{PrevID: n.PrevID, NextID: n.NextID}}
	if n.Current != nil {
		v := vacancyToResponse(n.Current)
		resp.Result.Vacancy = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

type ingestRequest struct {
	Source    string            `json:"source"`
	Vacancies []ingestCandidate `json:"vacancies"`
}

type ingestCandidate struct {
	LocalID     string    `json:"local_id"`
	Link        string    `json:"link"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`

	Profession  *string  `json:"profession,omitempty"`
	Grades      []string `json:"grades,omitempty"`
	WorkFormats []string `json:"work_formats,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// IngestVacancies handles POST /api/v1/vacancies/ingest.
func (s *Server) IngestVacancies(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	batch := make([]domain.CandidatePosting, len(req.Vacancies))
	for i, v := range req.Vacancies {
		c := domain.CandidatePosting{
			LocalID:     v.LocalID,
			Link:        v.Link,
			RawText:     v.Text,
			PublishedAt: v.PublishedAt,
			Grades:      toTags(v.Grades),
			WorkFormats: toTags(v.WorkFormats),
			Skills:      toTags(v.Skills),
		}
		if v.Profession != nil {
			p := domain.CanonicalTag(*v.Profession)
			c.Profession = &p
		}
		batch[i] = c
	}

	result, err := s.ingest.Ingest(r.Context(), domain.Source(req.Source), batch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// LastPublished handles GET /api/v1/sources/{source}/last-published.
// Scrapers use it to bound the next fetch window.
func (s *Server) LastPublished(w http.ResponseWriter, r *http.Request) {
	source := domain.Source(chi.URLParam(r, "source"))

	ts, err := s.ingest.LastPublishedAt(r.Context(), source)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var published *time.Time
	if !ts.IsZero() {
		published = &ts
	}
	writeJSON(w, http.StatusOK, map[string]*time.Time{"published_at": published})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, codeUnknownSource, domain.ErrUnknownSource.Error())
	case errors.Is(err, domain.ErrInvalidCandidate):
		writeError(w, http.StatusBadRequest, codeBadRequest, domain.ErrInvalidCandidate.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, domain.ErrNotFound.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func vacancyToResponse(p *domain.Posting) vacancyResponse {
	v := vacancyResponse{
		ID:          p.ID,
		Source:      string(p.Source),
		Link:        p.Link,
		Text:        p.RawText,
		PublishedAt: p.PublishedAt,
		Grades:      fromTags(p.Grades),
		WorkFormats: fromTags(p.WorkFormats),
		Skills:      fromTags(p.Skills),
	}
	if p.Profession != nil {
		prof := string(*p.Profession)
		v.Profession = &prof
	}
	return v
}

func toTags(in []string) []domain.CanonicalTag {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.CanonicalTag, len(in))
	for i, s := range in {
		out[i] = domain.CanonicalTag(s)
	}
	return out
}

func fromTags(in []domain.CanonicalTag) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = string(t)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
