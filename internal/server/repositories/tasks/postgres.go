package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const taskColumns = `id, user_id, title, description, status, priority, deadline, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the user's tasks ordered by id. An empty status lists all.
func (r *PostgresRepository) List(ctx context.Context, userID int64, status string) ([]*models.Task, error) {
	query :=
		`SELECT ` + taskColumns + ` FROM tasks
		 WHERE user_id = $1 AND ($2 = '' OR status = $2)
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return oneTask(r.db.QueryRowContext(ctx, query, id, userID))
}

// GetForUpdate is Get with a row lock held until the surrounding
// transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return oneTask(r.db.QueryRowContext(ctx, query, id, userID))
}

// Create inserts task and returns it with id and timestamps filled in.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (user_id, title, description, status, priority, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + taskColumns

	return oneTask(r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Description, task.Status, task.Priority, nullTime(task)))
}

// Update overwrites the mutable fields of an owned task.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`UPDATE tasks
		 SET title = $3, description = $4, status = $5, priority = $6, deadline = $7, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	return oneTask(r.db.QueryRowContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.Priority, nullTime(task)))
}

func (r *PostgresRepository) SetStatus(ctx context.Context, userID, id int64, status string) (*models.Task, error) {
	query :=
		`UPDATE tasks SET status = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING ` + taskColumns

	return oneTask(r.db.QueryRowContext(ctx, query, id, userID, status))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*models.Task, error) {
	task := &models.Task{}
	var deadline sql.NullTime

	if err := s.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &deadline, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	if deadline.Valid {
		t := deadline.Time
		task.Deadline = &t
	}
	return task, nil
}

func oneTask(row *sql.Row) (*models.Task, error) {
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

func nullTime(task *models.Task) sql.NullTime {
	if task.Deadline == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *task.Deadline, Valid: true}
}
