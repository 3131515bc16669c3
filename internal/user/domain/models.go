// Package domain holds the display data of users, owned by the identity service and
// mirrored here so member listings can join it.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orgkeeper/pkg/errs"
	"gorm.io/gorm"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null;default:''" json:"name"`
	Email     string       `gorm:"type:text;not null;default:''" json:"email"`
	AvatarURL string       `gorm:"type:text;not null;default:''" json:"avatar_url"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, user User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
}

var ErrInvalidUser = errs.InvalidArgument("invalid_user")
