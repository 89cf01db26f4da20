package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	UserName  string    `json:"user_name" gorm:"uniqueIndex;column:user_name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// UserClaims carries the authenticated identity inside the JWT. Issuer holds
// the user id consumed by the auth middleware.
type UserClaims struct {
	UserName string `json:"user_name"`
	jwt.StandardClaims
}
