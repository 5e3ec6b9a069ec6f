package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Rotate(ctx context.Context, id, oldToken, newToken string, expires time.Time) error
}
