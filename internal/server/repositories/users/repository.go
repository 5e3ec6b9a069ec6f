package users

import (
	"context"

	"github.com/dmitrijs2005/devhabit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	FindIDByIdentityID(ctx context.Context, identityID string) (string, error)
}
