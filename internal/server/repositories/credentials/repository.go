package credentials

import (
	"context"

	"github.com/dmitrijs2005/devhabit/internal/server/models"
)

// Repository is the identity store: credentials, password verification and
// role membership.
type Repository interface {
	Create(ctx context.Context, email, password string) (*models.Credential, error)
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
	FindByID(ctx context.Context, id string) (*models.Credential, error)
	VerifyPassword(credential *models.Credential, password string) bool
	AssignRole(ctx context.Context, credentialID, role string) error
	GetRoles(ctx context.Context, credentialID string) ([]string, error)
}
