package repository

import (
	"context"

	"clipforge/domain/model"
)

type IUser interface {
	GetByUserName(ctx context.Context, userName string) (model.User, error)
	Create(ctx context.Context, user *model.User) error
}
