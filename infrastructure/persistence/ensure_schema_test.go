package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchemas_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS credentials").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureCredentialSchema(db))

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clip_jobs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_clip_jobs_user_created").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureJobSchema(db))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemas_MSSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// MSSQL has no CREATE TABLE IF NOT EXISTS; the guard is an OBJECT_ID check.
	mock.ExpectExec("IF OBJECT_ID\\('dbo.credentials', 'U'\\) IS NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureCredentialSchemaMSSQL(db))

	mock.ExpectExec("IF OBJECT_ID\\('dbo.clip_jobs', 'U'\\) IS NULL").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("IF NOT EXISTS \\(SELECT 1 FROM sys.indexes").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, EnsureJobSchemaMSSQL(db))

	require.NoError(t, mock.ExpectationsWereMet())
}
