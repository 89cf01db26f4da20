package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"clipforge/domain/dto"
	"clipforge/domain/model"
	"clipforge/domain/repository"
	"clipforge/infrastructure/utils"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type IUserUsecase interface {
	Login(ctx context.Context, req dto.LoginRequest, secretKey string) (dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) error
}

type userUsecase struct {
	userRepo repository.IUser
}

func NewUserUsecase(userRepo repository.IUser) IUserUsecase {
	return &userUsecase{userRepo: userRepo}
}

func hashPassword(p string) string {
	sum := md5.Sum([]byte(p))
	return hex.EncodeToString(sum[:])
}

func (u *userUsecase) Login(ctx context.Context, req dto.LoginRequest, secretKey string) (dto.LoginResponse, error) {
	user, err := u.userRepo.GetByUserName(ctx, req.UserName)
	if err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if user.Password != hashPassword(req.Password) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	now := utils.GetCurrentTime()
	token, err := utils.GenerateToken(map[string]interface{}{
		"iss":       strconv.FormatInt(user.ID, 10),
		"user_name": user.UserName,
		"iat":       now.Unix(),
		"exp":       now.Add(24 * time.Hour).Unix(),
	}, secretKey)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{AccessToken: token}, nil
}

func (u *userUsecase) Register(ctx context.Context, req dto.RegisterRequest) error {
	user := &model.User{
		Name:     req.Name,
		UserName: req.UserName,
		Password: hashPassword(req.Password),
	}
	return u.userRepo.Create(ctx, user)
}
