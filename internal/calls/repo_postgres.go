package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectColumns = `id, organization_id, organization_name, phone, status, duration,
       transcript, summary, recording_url, hung_up_by, created_at`

func (r *PostgresRepo) Append(ctx context.Context, rec CallRecord) (CallRecord, error) {
	const q = `
INSERT INTO call_records (organization_id, organization_name, phone, status, duration, recording_url, hung_up_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + selectColumns

	if rec.DurationSeconds < 0 {
		rec.DurationSeconds = 0
	}
	var out CallRecord
	err := r.db.QueryRowxContext(ctx, q,
		rec.OrganizationID,
		rec.OrganizationName,
		rec.Phone,
		rec.Status,
		rec.DurationSeconds,
		rec.RecordingURL,
		rec.HungUpBy,
	).StructScan(&out)
	if err != nil {
		return CallRecord{}, fmt.Errorf("insert call record: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (CallRecord, error) {
	var out CallRecord
	if err := r.db.GetContext(ctx, &out, `SELECT `+selectColumns+` FROM call_records WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, fmt.Errorf("select call record: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) LatestByPhone(ctx context.Context, phone string, since time.Time) (CallRecord, error) {
	const q = `
SELECT ` + selectColumns + `
FROM call_records
WHERE phone = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
ORDER BY created_at DESC, id DESC
LIMIT 1
`
	var lower *time.Time
	if !since.IsZero() {
		s := since.UTC()
		lower = &s
	}
	var out CallRecord
	if err := r.db.GetContext(ctx, &out, q, phone, lower); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, fmt.Errorf("select latest call record: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := make([]CallRecord, 0)
	if err := r.db.SelectContext(ctx, &out, `SELECT `+selectColumns+` FROM call_records ORDER BY id DESC LIMIT $1`, limit); err != nil {
		return nil, fmt.Errorf("select recent call records: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) ListBetween(ctx context.Context, from, to time.Time) ([]CallRecord, error) {
	out := make([]CallRecord, 0)
	const q = `SELECT ` + selectColumns + ` FROM call_records WHERE created_at >= $1 AND created_at < $2 ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &out, q, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("select call records in range: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) SetRecording(ctx context.Context, id int64, url string, durationSeconds int) error {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return r.update(ctx, `UPDATE call_records SET recording_url = $2, duration = $3 WHERE id = $1`, id, url, durationSeconds)
}

func (r *PostgresRepo) SetTranscript(ctx context.Context, id int64, text string) error {
	return r.update(ctx, `UPDATE call_records SET transcript = $2 WHERE id = $1`, id, text)
}

func (r *PostgresRepo) SetSummary(ctx context.Context, id int64, text string) error {
	return r.update(ctx, `UPDATE call_records SET summary = $2 WHERE id = $1`, id, text)
}

func (r *PostgresRepo) update(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update call record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
