// Package tasks declares the repository contract for per-user tasks. Every
// method is scoped by owner; a task owned by someone else is reported as
// missing.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID int64, status string) ([]*models.Task, error)
	Get(ctx context.Context, userID, id int64) (*models.Task, error)
	GetForUpdate(ctx context.Context, userID, id int64) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	SetStatus(ctx context.Context, userID, id int64, status string) (*models.Task, error)
	Delete(ctx context.Context, userID, id int64) error
}
