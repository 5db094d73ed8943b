package postgresadapter

import (
	"context"

	"gorm.io/gorm"
)

// schemaStatements create the drop tables when missing. There is no
// versioning: every statement is idempotent and safe to rerun.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS drops (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'geo',
		status TEXT NOT NULL DEFAULT 'active',
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		radius_m INTEGER NOT NULL DEFAULT 25 CHECK (radius_m > 0),
		starts_at TIMESTAMPTZ,
		expires_at TIMESTAMPTZ,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_by TEXT,
		claimed_count INTEGER NOT NULL DEFAULT 0 CHECK (claimed_count >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS drops_status_idx ON drops (status)`,
	`CREATE INDEX IF NOT EXISTS drops_geo_idx ON drops (lat, lng)`,
	`CREATE INDEX IF NOT EXISTS drops_created_at_idx ON drops (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS claims (
		id UUID PRIMARY KEY,
		drop_id UUID NOT NULL REFERENCES drops(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		value NUMERIC(18,8),
		tx_hash TEXT,
		claimed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (drop_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS claims_user_idx ON claims (user_id, claimed_at DESC)`,
}

// EnsureSchema applies the schema in one transaction.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, statement := range schemaStatements {
			if err := tx.Exec(statement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return r.logError("schema bootstrap failed", "pg_schema_failed", err)
	}
	r.logger.Info("schema ensured",
		"event", "pg_schema_ensured",
		"module", "geo-rewards/drop-service",
		"layer", "adapter",
	)
	return nil
}
