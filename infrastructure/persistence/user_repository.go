package persistence

import (
	"context"

	"clipforge/domain/model"

	"gorm.io/gorm"
)

// UserRepository backs login/register against the MySQL user store via GORM.
type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
