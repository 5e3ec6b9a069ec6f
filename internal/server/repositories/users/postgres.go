// Package users provides the PostgreSQL-backed application user store.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/google/uuid"
)

// IDPrefix marks application user ids.
const IDPrefix = "u_"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewID returns a time-sortable application user id.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return IDPrefix + id.String(), nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO dev_habit.users (id, name, email, created_at_utc, updated_at_utc, identity_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.CreatedAt, user.UpdatedAt, user.IdentityID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, created_at_utc, updated_at_utc, identity_id
		 FROM dev_habit.users
		 WHERE id = $1
		 `

	user := &models.User{}
	var updated sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &updated, &user.IdentityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if updated.Valid {
		user.UpdatedAt = &updated.Time
	}

	return user, nil
}

// FindIDByIdentityID returns the id of the user linked to identityID, or
// common.ErrorNotFound.
func (r *PostgresRepository) FindIDByIdentityID(ctx context.Context, identityID string) (string, error) {
	query :=
		`SELECT id FROM dev_habit.users
		 WHERE identity_id = $1
		 `

	var id string
	if err := r.db.QueryRowContext(ctx, query, identityID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return id, nil
}
