package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const userColumns = `id, full_name, email, password_hash, bio, profile_pic, email_verified_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in the generated id and timestamps.
// A duplicate email yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (full_name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	query :=
		`UPDATE users SET email_verified_at = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, at)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, fullName, bio string) (*models.User, error) {
	query :=
		`UPDATE users SET full_name = $2, bio = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, fullName, bio))
}

func (r *PostgresRepository) SetProfilePic(ctx context.Context, id int64, key string) error {
	query :=
		`UPDATE users SET profile_pic = $2, updated_at = now()
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, id, key)
}

// execOne runs an UPDATE that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var verifiedAt sql.NullTime

	err := row.Scan(&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.Bio, &user.ProfilePic, &verifiedAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if verifiedAt.Valid {
		t := verifiedAt.Time
		user.EmailVerifiedAt = &t
	}
	return user, nil
}
