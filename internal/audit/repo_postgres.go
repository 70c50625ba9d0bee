package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, action, operator, role, ip_address, target, metadata, created_at)
VALUES (:id, :action, :operator, :role, :ip_address, :target, CAST(:metadata AS jsonb), :created_at)`

	if _, err := r.db.NamedExecContext(ctx, q, e); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
