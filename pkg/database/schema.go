package database

import (
	"context"
	"fmt"
)

// The partial unique index is the ledger's defense in depth: at most one
// active reservation per (subject, resource), while cancelled history rows
// accumulate freely for audit.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id UUID PRIMARY KEY,
		scheduled_at TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL,
		capacity INT NOT NULL CHECK (capacity > 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id UUID PRIMARY KEY,
		subject_id UUID NOT NULL,
		resource_id UUID NOT NULL REFERENCES resources (id),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reservations_active_subject_resource
		ON reservations (subject_id, resource_id)
		WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS reservations_resource_status
		ON reservations (resource_id, status)`,
}

// Migrate bootstraps the engine's tables and indexes.
func Migrate(ctx context.Context, db PgxIface) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
