package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"clipforge/domain/model"
)

func TestCredentialRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	exp := now.Add(2 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "provider", "access_token", "refresh_token", "expires_at", "scopes", "open_id", "created_at", "updated_at"}).
		AddRow(int64(7), "user-1", "tiktok", "at-1", "rt-1", exp, "video.publish", "open-1", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at FROM credentials WHERE user_id=$1 AND provider=$2`)).
		WithArgs("user-1", "tiktok").
		WillReturnRows(rows)

	cred, err := repo.Get(context.Background(), "user-1", "tiktok")
	require.NoError(t, err)
	require.NotNil(t, cred)
	require.Equal(t, "at-1", cred.AccessToken)
	require.Equal(t, "rt-1", cred.RefreshToken)
	require.NotNil(t, cred.ExpiresAt)
	require.Equal(t, exp, *cred.ExpiresAt)
	require.NotNil(t, cred.OpenID)
	require.Equal(t, "open-1", *cred.OpenID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at FROM credentials WHERE user_id=$1 AND provider=$2`)).
		WithArgs("user-2", "tiktok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	cred, err := repo.Get(context.Background(), "user-2", "tiktok")
	require.NoError(t, err)
	require.Nil(t, cred)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credentials`)).
		WithArgs("user-1", "tiktok", "at-2", "rt-2", sqlmock.AnyArg(), "video.publish", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cred := &model.Credential{
		UserID:       "user-1",
		Provider:     "tiktok",
		AccessToken:  "at-2",
		RefreshToken: "rt-2",
		Scopes:       "video.publish",
	}
	require.NoError(t, repo.Upsert(context.Background(), cred))
	require.False(t, cred.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM credentials WHERE user_id=$1 AND provider=$2`)).
		WithArgs("user-1", "tiktok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "user-1", "tiktok"))
	require.NoError(t, mock.ExpectationsWereMet())
}
