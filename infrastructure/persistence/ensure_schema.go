package persistence

import (
	"database/sql"
)

// EnsureCredentialSchema creates the credentials table if missing (PostgreSQL).
func EnsureCredentialSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NULL,
		scopes TEXT NOT NULL DEFAULT '',
		open_id TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, provider)
	)`)
	return err
}

// EnsureJobSchema creates the clip_jobs table if missing (PostgreSQL).
func EnsureJobSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS clip_jobs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source_url TEXT NOT NULL,
		source_title TEXT NULL,
		duration_secs BIGINT NULL,
		status TEXT NOT NULL,
		progress INT NOT NULL DEFAULT 0,
		clip_count INT NOT NULL DEFAULT 0,
		error_message TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_clip_jobs_user_created ON clip_jobs (user_id, created_at DESC)`)
	return err
}
