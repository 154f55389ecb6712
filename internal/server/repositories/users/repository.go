// Package users declares the server-side repository contract for accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id int64, at time.Time) error
	UpdateProfile(ctx context.Context, id int64, fullName, bio string) (*models.User, error)
	SetProfilePic(ctx context.Context, id int64, key string) error
}
