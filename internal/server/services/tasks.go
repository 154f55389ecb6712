package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// TaskService manages the tasks of a single owner per call. A task that
// belongs to someone else is reported as common.ErrorNotFound.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "tasks"),
	}
}

// List returns the owner's tasks, optionally only those with status.
func (s *TaskService) List(ctx context.Context, userID int64, status string) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks(s.db).List(ctx, userID, strings.TrimSpace(status))
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	return tasks, nil
}

// Create stores a new task. Empty status and priority get the defaults.
func (s *TaskService) Create(ctx context.Context, userID int64, task *models.Task) (*models.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if task.Status == "" {
		task.Status = common.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = common.TaskPriorityMedium
	}
	task.UserID = userID

	created, err := s.repomanager.Tasks(s.db).Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Debug(ctx, "task created", "task_id", created.ID, "user_id", userID)
	return created, nil
}

// Update applies patch to an owned task. The row is locked for the read and
// write, so concurrent patches do not interleave field by field.
func (s *TaskService) Update(ctx context.Context, userID, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", common.ErrorValidation)
	}

	var updated *models.Task

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tasks(tx)

		task, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}

		patch.Apply(task)

		updated, err = repo.Update(ctx, task)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error updating task: %w", err)
	}

	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repomanager.Tasks(s.db).Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	s.logger.Debug(ctx, "task deleted", "task_id", id, "user_id", userID)
	return nil
}

// MarkDone sets the task's status to "done".
func (s *TaskService) MarkDone(ctx context.Context, userID, id int64) (*models.Task, error) {
	task, err := s.repomanager.Tasks(s.db).SetStatus(ctx, userID, id, common.TaskStatusDone)
	if err != nil {
		return nil, fmt.Errorf("error marking task done: %w", err)
	}
	return task, nil
}
