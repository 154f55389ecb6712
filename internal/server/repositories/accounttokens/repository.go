// Package accounttokens declares the repository contract for one-time
// account tokens (email verification and password reset).
package accounttokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Replace(ctx context.Context, token *models.AccountToken) error
	Consume(ctx context.Context, purpose models.TokenPurpose, tokenHash string, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
