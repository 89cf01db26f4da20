package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clipforge/domain/model"
)

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) *CredentialRepository { return &CredentialRepository{db: db} }

func (r *CredentialRepository) Upsert(ctx context.Context, c *model.Credential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	q := `INSERT INTO credentials (user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		  ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			scopes=EXCLUDED.scopes,
			open_id=EXCLUDED.open_id,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, c.UserID, c.Provider, c.AccessToken, c.RefreshToken, c.ExpiresAt, c.Scopes, c.OpenID, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CredentialRepository) Get(ctx context.Context, userID, provider string) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at FROM credentials WHERE user_id=$1 AND provider=$2`, userID, provider)
	cred := &model.Credential{}
	var exp sql.NullTime
	var openID sql.NullString
	if err := row.Scan(&cred.ID, &cred.UserID, &cred.Provider, &cred.AccessToken, &cred.RefreshToken, &exp, &cred.Scopes, &openID, &cred.CreatedAt, &cred.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if exp.Valid {
		t := exp.Time
		cred.ExpiresAt = &t
	}
	if openID.Valid {
		v := openID.String
		cred.OpenID = &v
	}
	return cred, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id=$1 AND provider=$2`, userID, provider)
	return err
}
