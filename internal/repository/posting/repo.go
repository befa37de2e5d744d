// Package posting implements the Postgres repository for vacancy postings.
//
// The near-duplicate lookup rides the pg_trgm GiST index over the
// fingerprint column; candidates are never iterated client-side.
package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hirewire/vacmatch/internal/domain"
)

const uniqueViolationCode = "23505"

// Querier is the pgx surface the repository needs. *pgxpool.Pool satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repo is the Postgres posting repository.
type Repo struct {
	db Querier
}

// New creates a posting repository.
func New(db Querier) *Repo {
	return &Repo{db: db}
}

// IdentityExists reports whether an identity key is already taken, counting
// both live and retired postings: a retired posting still blocks
// re-insertion of the same source-local listing.
func (r *Repo) IdentityExists(ctx context.Context, identityKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM postings WHERE identity_key = $1)`,
		identityKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("identity exists: %w", err)
	}
	return exists, nil
}

// FindNearDuplicate returns the id of at most one live posting whose
// fingerprint similarity to the given fingerprint exceeds threshold.
// The `%` operator narrows the scan to the trigram index before the exact
// similarity() cut is applied.
func (r *Repo) FindNearDuplicate(ctx context.Context, fingerprint string, threshold float64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id
		 FROM postings
		 WHERE retired_at IS NULL
		   AND fingerprint % $1::text
		   AND similarity(fingerprint, $1::text) > $2
		 LIMIT 1`,
		fingerprint, threshold,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find near duplicate: %w", err)
	}
	return id, true, nil
}

// AdvancePublishedAt moves a posting's published time forward to publishedAt
// if it is later than the stored one. It never moves the time backward.
func (r *Repo) AdvancePublishedAt(ctx context.Context, id int64, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE postings SET published_at = GREATEST(published_at, $2) WHERE id = $1`,
		id, publishedAt,
	)
	if err != nil {
		return fmt.Errorf("advance published_at: %w", err)
	}
	return nil
}

// Insert persists a posting with its tag links in one transaction and
// returns the assigned id. A unique violation on identity_key maps to
// domain.ErrDuplicateIdentity so callers can treat the race as a benign
// duplicate.
func (r *Repo) Insert(ctx context.Context, p *domain.Posting) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO postings (source, identity_key, fingerprint, link, raw_text, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		p.Source, p.IdentityKey, p.Fingerprint, p.Link, p.RawText, p.PublishedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return 0, fmt.Errorf("insert posting: %w", domain.ErrDuplicateIdentity)
		}
		return 0, fmt.Errorf("insert posting: %w", err)
	}

	if err := insertTags(ctx, tx, id, p); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

func insertTags(ctx context.Context, tx pgx.Tx, postingID int64, p *domain.Posting) error {
	type link struct {
		family domain.TagFamily
		tag    domain.CanonicalTag
	}

	var links []link
	if p.Profession != nil {
		links = append(links, link{domain.FamilyProfession, *p.Profession})
	}
	for _, t := range p.Grades {
		links = append(links, link{domain.FamilyGrade, t})
	}
	for _, t := range p.WorkFormats {
		links = append(links, link{domain.FamilyWorkFormat, t})
	}
	for _, t := range p.Skills {
		links = append(links, link{domain.FamilySkill, t})
	}

	for _, l := range links {
		_, err := tx.Exec(ctx,
			`INSERT INTO posting_tags (posting_id, family, tag) VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			postingID, l.family, l.tag,
		)
		if err != nil {
			return fmt.Errorf("insert tag link %s/%s: %w", l.family, l.tag, err)
		}
	}
	return nil
}

// Get loads one posting with its tags.
func (r *Repo) Get(ctx context.Context, id int64) (domain.Posting, error) {
	var p domain.Posting
	err := r.db.QueryRow(ctx,
		`SELECT id, source, identity_key, fingerprint, link, raw_text, published_at, retired_at
		 FROM postings WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Source, &p.IdentityKey, &p.Fingerprint, &p.Link, &p.RawText, &p.PublishedAt, &p.RetiredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Posting{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Posting{}, fmt.Errorf("get posting: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT family, tag FROM posting_tags WHERE posting_id = $1 ORDER BY family, tag`,
		id,
	)
	if err != nil {
		return domain.Posting{}, fmt.Errorf("get posting tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var family domain.TagFamily
		var tag domain.CanonicalTag
		if err := rows.Scan(&family, &tag); err != nil {
			return domain.Posting{}, fmt.Errorf("scan tag: %w", err)
		}
		switch family {
		case domain.FamilyProfession:
			t := tag
			p.Profession = &t
		case domain.FamilyGrade:
			p.Grades = append(p.Grades, tag)
		case domain.FamilyWorkFormat:
			p.WorkFormats = append(p.WorkFormats, tag)
		case domain.FamilySkill:
			p.Skills = append(p.Skills, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Posting{}, fmt.Errorf("read tags: %w", err)
	}
	return p, nil
}

// FetchCandidates runs the coarse eligibility query for ranking: live
// postings within the recency window, matching all conjunctive filters, with
// per-posting total and overlapping skill counts computed in SQL. Rows with
// zero overlapping skills never leave the database.
func (r *Repo) FetchCandidates(
	ctx context.Context, criteria domain.MatchCriteria, since time.Time, minSimilarityPercent float64,
) ([]CandidateRow, error) {
	sql, args := buildCandidateQuery(criteria, since, minSimilarityPercent)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer rows.Close()

	var out []CandidateRow
	for rows.Next() {
		var c CandidateRow
		if err := rows.Scan(&c.ID, &c.PublishedAt, &c.TotalSkills, &c.CommonSkills); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return out, nil
}

// LatestPublishedAt returns the newest published time ingested for a source,
// or the zero time when the source has no postings yet. Ingestion callers
// use it as the explicit per-source high-water mark.
func (r *Repo) LatestPublishedAt(ctx context.Context, source domain.Source) (time.Time, error) {
	var ts *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT MAX(published_at) FROM postings WHERE source = $1`,
		source,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest published_at: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}

// Retire marks a posting as retired. Retired postings stay on record for
// audit and identity checks but leave ranking and near-duplicate lookups.
func (r *Repo) Retire(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE postings SET retired_at = $2 WHERE id = $1 AND retired_at IS NULL`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("retire posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RetireFingerprintDuplicates retires postings that share an identical
// fingerprint with a newer one, keeping in each group the row with the
// greatest (published_at, id). Returns the number of postings retired.
func (r *Repo) RetireFingerprintDuplicates(ctx context.Context, at time.Time, limit int) (int64, error) {
	sql := `
		WITH ranked AS (
			SELECT id,
			       ROW_NUMBER() OVER (
			           PARTITION BY fingerprint
			           ORDER BY published_at DESC, id DESC
			       ) AS rn
			FROM postings
			WHERE retired_at IS NULL
		)
		UPDATE postings p
		SET retired_at = $1
		FROM (SELECT id FROM ranked WHERE rn > 1 LIMIT $2) dup
		WHERE p.id = dup.id`

	tag, err := r.db.Exec(ctx, sql, at, limit)
	if err != nil {
		return 0, fmt.Errorf("retire fingerprint duplicates: %w", err)
	}
	return tag.RowsAffected(), nil
}
