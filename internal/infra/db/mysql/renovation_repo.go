package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/renovator/internal/domain/renovation"
)

type RenovationRepository struct {
	db *sql.DB
}

func NewRenovationRepository(db *sql.DB) *RenovationRepository {
	return &RenovationRepository{db: db}
}

// EnsureSchema creates the renovations table when missing
func (r *RenovationRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS renovations (
  id          CHAR(36)      NOT NULL PRIMARY KEY,
  prompt      TEXT          NOT NULL,
  source_url  TEXT          NOT NULL,
  result_url  TEXT          NOT NULL,
  provider    VARCHAR(32)   NOT NULL,
  duration_ms BIGINT        NOT NULL DEFAULT 0,
  created_at  DATETIME(3)   NOT NULL,
  INDEX idx_renovations_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a renovation record
func (r *RenovationRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO renovations
  (id, prompt, source_url, result_url, provider, duration_ms, created_at)
VALUES (?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  result_url=VALUES(result_url), duration_ms=VALUES(duration_ms);
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		stringOrDash(rec.Prompt),
		stringOrDash(rec.SourceURL),
		rec.ResultURL,
		stringOrDash(rec.Provider),
		rec.DurationMS,
		createdAt.UTC(),
	)
	return err
}

// Latest returns the most recent records, newest first
func (r *RenovationRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, prompt, source_url, result_url, provider, duration_ms, created_at
FROM renovations
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.Prompt, &rec.SourceURL, &rec.ResultURL, &rec.Provider, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
