package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chiRouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hirewire/vacmatch/internal/domain"
	healthuc "github.com/hirewire/vacmatch/internal/usecase/health"
)

// --- Mocks ---

type mockMatcher struct {
	neighbors   domain.Neighbors
	err         error
	gotCriteria domain.MatchCriteria
	gotCursor   *int64
}

func (m *mockMatcher) Relevant(
	_ context.Context, criteria domain.MatchCriteria, currentID *int64,
) (domain.Neighbors, error) {
	m.gotCriteria = criteria
	m.gotCursor = currentID
	return m.neighbors, m.err
}

type mockIngester struct {
	result    domain.IngestResult
	latest    time.Time
	err       error
	gotSource domain.Source
	gotBatch  []domain.CandidatePosting
}

func (m *mockIngester) Ingest(
	_ context.Context, source domain.Source, batch []domain.CandidatePosting,
) (domain.IngestResult, error) {
	m.gotSource = source
	m.gotBatch = batch
	return m.result, m.err
}

func (m *mockIngester) LastPublishedAt(_ context.Context, source domain.Source) (time.Time, error) {
	m.gotSource = source
	return m.latest, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(matcher Matcher, ingest Ingester, health HealthChecker) http.Handler {
	s := NewServer(matcher, ingest, health, zap.NewNop())
	r := chiRouter.NewRouter()
	s.Routes(r)
	return r
}

// --- Tests ---

func TestMatchVacancies_OK(t *testing.T) {
	prev, next := int64(30), int64(10)
	matcher := &mockMatcher{neighbors: domain.Neighbors{
		PrevID:  &prev,
		Current: &domain.Posting{ID: 20, Source: domain.SourceTelegram, Link: "https://t.me/x/20", RawText: "text"},
		NextID:  &next,
	}}
	router := newTestRouter(matcher, &mockIngester{}, &mockHealth{})

	body := `{"skills":["go","sql"],"grades":["senior"],"current_vacancy_id":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/match", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp matchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.Vacancy == nil || resp.Result.Vacancy.ID != 20 {
		t.Errorf("vacancy = %+v, want id 20", resp.Result.Vacancy)
	}
	if resp.Result.PrevID == nil || *resp.Result.PrevID != 30 {
		t.Errorf("prev_id = %v, want 30", resp.Result.PrevID)
	}
	if resp.Result.NextID == nil || *resp.Result.NextID != 10 {
		t.Errorf("next_id = %v, want 10", resp.Result.NextID)
	}

	if len(matcher.gotCriteria.Skills) != 2 || len(matcher.gotCriteria.Grades) != 1 {
		t.Errorf("criteria not passed through: %+v", matcher.gotCriteria)
	}
	if matcher.gotCursor == nil || *matcher.gotCursor != 20 {
		t.Errorf("cursor = %v, want 20", matcher.gotCursor)
	}
}

func TestMatchVacancies_EmptyResult(t *testing.T) {
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, &mockHealth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/match",
		strings.NewReader(`{"skills":["cobol"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp matchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.Vacancy != nil || resp.Result.PrevID != nil || resp.Result.NextID != nil {
		t.Errorf("result = %+v, want empty triple", resp.Result)
	}
}

func TestMatchVacancies_BadJSON(t *testing.T) {
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, &mockHealth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/match", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMatchVacancies_UnknownSourceFilter(t *testing.T) {
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, &mockHealth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/match",
		strings.NewReader(`{"skills":["go"],"sources":["linkedin"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIngestVacancies_OK(t *testing.T) {
	ingester := &mockIngester{result: domain.IngestResult{Accepted: 2, Merged: 1}}
	router := newTestRouter(&mockMatcher{}, ingester, &mockHealth{})

	body := `{
		"source": "telegram",
		"vacancies": [
			{"local_id": "1", "link": "https://t.me/x/1", "text": "Go dev",
			 "published_at": "2025-08-20T12:00:00Z", "skills": ["go"], "profession": "backend"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/ingest", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result domain.IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Accepted != 2 || result.Merged != 1 {
		t.Errorf("result = %+v", result)
	}

	if ingester.gotSource != domain.SourceTelegram {
		t.Errorf("source = %q", ingester.gotSource)
	}
	if len(ingester.gotBatch) != 1 {
		t.Fatalf("batch size = %d", len(ingester.gotBatch))
	}
	c := ingester.gotBatch[0]
	if c.LocalID != "1" || c.RawText != "Go dev" || len(c.Skills) != 1 {
		t.Errorf("candidate not mapped: %+v", c)
	}
	if c.Profession == nil || *c.Profession != "backend" {
		t.Errorf("profession = %v", c.Profession)
	}
}

func TestIngestVacancies_UnknownSource(t *testing.T) {
	ingester := &mockIngester{err: domain.ErrUnknownSource}
	router := newTestRouter(&mockMatcher{}, ingester, &mockHealth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/ingest",
		strings.NewReader(`{"source":"linkedin","vacancies":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeUnknownSource {
		t.Errorf("code = %q, want %q", resp.Code, codeUnknownSource)
	}
}

func TestIngestVacancies_StorageError(t *testing.T) {
	ingester := &mockIngester{err: errors.New("connection refused")}
	router := newTestRouter(&mockMatcher{}, ingester, &mockHealth{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacancies/ingest",
		strings.NewReader(`{"source":"telegram","vacancies":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestLastPublished(t *testing.T) {
	ts := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	ingester := &mockIngester{latest: ts}
	router := newTestRouter(&mockMatcher{}, ingester, &mockHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources/telegram/last-published", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		PublishedAt *time.Time `json:"published_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PublishedAt == nil || !resp.PublishedAt.Equal(ts) {
		t.Errorf("published_at = %v, want %v", resp.PublishedAt, ts)
	}
	if ingester.gotSource != domain.SourceTelegram {
		t.Errorf("source = %q", ingester.gotSource)
	}
}

func TestLastPublished_EmptySource(t *testing.T) {
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, &mockHealth{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources/telegram/last-published", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		PublishedAt *time.Time `json:"published_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PublishedAt != nil {
		t.Errorf("published_at = %v, want null for an empty source", resp.PublishedAt)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
	}}
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, healthy)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	degraded := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}
	router := newTestRouter(&mockMatcher{}, &mockIngester{}, degraded)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
