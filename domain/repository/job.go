package repository

import (
	"context"

	"clipforge/domain/model"
)

// IJob persists clip jobs. The workflow engine owns processing; handlers use
// this store as the canonical job status.
type IJob interface {
	Create(ctx context.Context, job *model.ClipJob) error
	// GetByID returns nil, nil when the job does not exist.
	GetByID(ctx context.Context, id string) (*model.ClipJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ClipJob, error)
	UpdateProgress(ctx context.Context, id string, status string, progress int, errMsg *string) error
}
