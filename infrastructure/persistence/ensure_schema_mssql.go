package persistence

import (
	"database/sql"
)

// EnsureCredentialSchemaMSSQL creates the credentials table if missing (MSSQL).
func EnsureCredentialSchemaMSSQL(db *sql.DB) error {
	_, err := db.Exec(`IF OBJECT_ID('dbo.credentials', 'U') IS NULL
	CREATE TABLE dbo.credentials (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		user_id NVARCHAR(255) NOT NULL,
		provider NVARCHAR(64) NOT NULL,
		access_token NVARCHAR(MAX) NOT NULL,
		refresh_token NVARCHAR(MAX) NOT NULL DEFAULT '',
		expires_at DATETIMEOFFSET NULL,
		scopes NVARCHAR(MAX) NOT NULL DEFAULT '',
		open_id NVARCHAR(255) NULL,
		created_at DATETIMEOFFSET NOT NULL,
		updated_at DATETIMEOFFSET NOT NULL,
		CONSTRAINT uq_credentials_user_provider UNIQUE (user_id, provider)
	)`)
	return err
}

// EnsureJobSchemaMSSQL creates the clip_jobs table if missing (MSSQL).
func EnsureJobSchemaMSSQL(db *sql.DB) error {
	_, err := db.Exec(`IF OBJECT_ID('dbo.clip_jobs', 'U') IS NULL
	CREATE TABLE dbo.clip_jobs (
		id NVARCHAR(64) PRIMARY KEY,
		user_id NVARCHAR(255) NOT NULL,
		source_url NVARCHAR(2048) NOT NULL,
		source_title NVARCHAR(1024) NULL,
		duration_secs BIGINT NULL,
		status NVARCHAR(32) NOT NULL,
		progress INT NOT NULL DEFAULT 0,
		clip_count INT NOT NULL DEFAULT 0,
		error_message NVARCHAR(MAX) NULL,
		created_at DATETIMEOFFSET NOT NULL,
		updated_at DATETIMEOFFSET NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = 'idx_clip_jobs_user_created' AND object_id = OBJECT_ID('dbo.clip_jobs'))
	CREATE INDEX idx_clip_jobs_user_created ON dbo.clip_jobs (user_id, created_at DESC)`)
	return err
}
