package organizations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const pgUniqueViolation = "23505"

// PostgresRepo assumes the organizations table from the embedded migrations,
// including UNIQUE (phone).
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const selectColumns = `id, name, phone, city, category, verified, score, last_called_at, created_at`

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Organization, error) {
	var o Organization
	err := r.db.GetContext(ctx, &o, `SELECT `+selectColumns+` FROM organizations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, fmt.Errorf("select organization: %w", err)
	}
	return o, nil
}

func (r *PostgresRepo) FindByPhone(ctx context.Context, phone string) (Organization, error) {
	var o Organization
	err := r.db.GetContext(ctx, &o, `SELECT `+selectColumns+` FROM organizations WHERE phone = $1`, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Organization{}, ErrNotFound
		}
		return Organization{}, fmt.Errorf("select organization by phone: %w", err)
	}
	return o, nil
}

func (r *PostgresRepo) ListVerified(ctx context.Context) ([]Organization, error) {
	out := make([]Organization, 0)
	if err := r.db.SelectContext(ctx, &out, `SELECT `+selectColumns+` FROM organizations WHERE verified ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("select verified organizations: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Organization, error) {
	out := make([]Organization, 0)
	if err := r.db.SelectContext(ctx, &out, `SELECT `+selectColumns+` FROM organizations ORDER BY score DESC, id ASC`); err != nil {
		return nil, fmt.Errorf("select organizations: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Create(ctx context.Context, org Organization) (Organization, error) {
	const q = `
INSERT INTO organizations (name, phone, city, category, verified, score)
VALUES (:name, :phone, :city, :category, :verified, :score)
RETURNING ` + selectColumns

	org.Score = ClampScore(org.Score)
	rows, err := r.db.NamedQueryContext(ctx, q, org)
	if err != nil {
		return Organization{}, mapInsertErr(err)
	}
	defer rows.Close()

	var out Organization
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Organization{}, mapInsertErr(err)
		}
		return Organization{}, errors.New("insert organization: no row returned")
	}
	if err := rows.StructScan(&out); err != nil {
		return Organization{}, fmt.Errorf("scan organization: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) MarkCalled(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE organizations SET last_called_at = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("update last_called_at: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) AdjustScore(ctx context.Context, id int64, delta float64) (float64, error) {
	// Clamp happens inside the statement so concurrent adjustments cannot lose updates.
	const q = `
UPDATE organizations
SET score = LEAST($3, GREATEST($4, score + $2))
WHERE id = $1
RETURNING score
`
	var score float64
	if err := r.db.QueryRowxContext(ctx, q, id, delta, MaxScore, MinScore).Scan(&score); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("update score: %w", err)
	}
	return score, nil
}

func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicatePhone
	}
	return fmt.Errorf("insert organization: %w", err)
}
