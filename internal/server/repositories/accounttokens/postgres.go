package accounttokens

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

// PostgresRepository stores account tokens over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). Replace issues two statements and should run inside
// a transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace drops any token the user holds for the same purpose and stores the
// new one. Tokens of other purposes are untouched.
func (r *PostgresRepository) Replace(ctx context.Context, token *models.AccountToken) error {
	deleteQuery := `
		DELETE FROM account_tokens
		WHERE user_id = $1 AND purpose = $2
	`
	if _, err := r.db.ExecContext(ctx, deleteQuery, token.UserID, string(token.Purpose)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	insertQuery := `
		INSERT INTO account_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, insertQuery,
		token.UserID, string(token.Purpose), token.TokenHash, token.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

// Consume deletes the unexpired token matching purpose and tokenHash and
// returns its owner. Missing and expired tokens both yield
// common.ErrInvalidToken; expired rows are left for DeleteExpired.
func (r *PostgresRepository) Consume(ctx context.Context, purpose models.TokenPurpose, tokenHash string, now time.Time) (int64, error) {
	query := `
		DELETE FROM account_tokens
		WHERE purpose = $1 AND token_hash = $2 AND expires_at > $3
		RETURNING user_id
	`
	var userID int64
	if err := r.db.QueryRowContext(ctx, query, string(purpose), tokenHash, now).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrInvalidToken
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

// DeleteExpired purges tokens that can no longer be consumed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM account_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
