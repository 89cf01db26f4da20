package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clipforge/domain/model"
)

// CredentialRepositoryMSSQL is the Azure SQL variant used when the service
// runs with DB_VENDOR=mssql or ENV=production.
type CredentialRepositoryMSSQL struct{ db *sql.DB }

func NewCredentialRepositoryMSSQL(db *sql.DB) *CredentialRepositoryMSSQL {
	return &CredentialRepositoryMSSQL{db: db}
}

func (r *CredentialRepositoryMSSQL) Upsert(ctx context.Context, c *model.Credential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	// MERGE is avoided on purpose; an update-then-insert pair is simpler to
	// reason about under the unique (user_id, provider) index.
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET access_token=@p1, refresh_token=@p2, expires_at=@p3, scopes=@p4, open_id=@p5, updated_at=@p6 WHERE user_id=@p7 AND provider=@p8`,
		c.AccessToken, c.RefreshToken, c.ExpiresAt, c.Scopes, c.OpenID, c.UpdatedAt, c.UserID, c.Provider)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO credentials (user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at) VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9)`,
		c.UserID, c.Provider, c.AccessToken, c.RefreshToken, c.ExpiresAt, c.Scopes, c.OpenID, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CredentialRepositoryMSSQL) Get(ctx context.Context, userID, provider string) (*model.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, provider, access_token, refresh_token, expires_at, scopes, open_id, created_at, updated_at FROM credentials WHERE user_id=@p1 AND provider=@p2`, userID, provider)
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

func (r *CredentialRepositoryMSSQL) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id=@p1 AND provider=@p2`, userID, provider)
	return err
}
