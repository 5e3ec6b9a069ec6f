// Package refreshtokens provides a PostgreSQL-backed repository for the
// refresh tokens issued by the authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts token. An empty ID is filled with a fresh UUIDv7.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		token.ID = id.String()
	}

	query := `
		INSERT INTO identity.refresh_tokens (id, user_id, token, expires_at_utc)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, token.Token, token.Expires); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByToken returns the row holding the given token value.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at_utc
		FROM identity.refresh_tokens
		WHERE token = $1
	`
	rt := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// Rotate replaces the token value and expiry of row id in place, provided
// the row still holds oldToken. It returns common.ErrorNotFound when the
// row is gone or was rotated concurrently.
func (r *PostgresRepository) Rotate(ctx context.Context, id, oldToken, newToken string, expires time.Time) error {
	query := `
		UPDATE identity.refresh_tokens
		SET token = $3, expires_at_utc = $4
		WHERE id = $1 AND token = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, oldToken, newToken, expires)
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
