package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepo persists events via database/sql (pgx stdlib driver).
//
// Expected schema:
//
//	CREATE TABLE auth_events (
//	    id          uuid PRIMARY KEY,
//	    type        text NOT NULL,
//	    success     boolean NOT NULL,
//	    ip_address  text NOT NULL DEFAULT '',
//	    message     text NOT NULL DEFAULT '',
//	    created_at  timestamptz NOT NULL
//	);

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	if r.db == nil {
		return fmt.Errorf("audit: db not configured")
	}
	const q = `
		INSERT INTO auth_events (id, type, success, ip_address, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, q, e.ID, string(e.Type), e.Success, e.IPAddress, e.Message, e.CreatedAt); err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}
