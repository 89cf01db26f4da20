package repository

import (
	"context"

	"clipforge/domain/model"
)

// ICredential persists OAuth credentials per (user, provider).
type ICredential interface {
	// Get returns nil, nil when no credential exists.
	Get(ctx context.Context, userID, provider string) (*model.Credential, error)
	Upsert(ctx context.Context, cred *model.Credential) error
	Delete(ctx context.Context, userID, provider string) error
}
