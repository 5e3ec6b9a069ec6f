// Package services contains server-side business logic. AuthService
// implements registration, login and refresh-token rotation; UserService
// reads application user profiles.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/config"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/users"
)

// TokenCreator mints token pairs. *auth.TokenIssuer implements it.
type TokenCreator interface {
	Create(req auth.TokenRequest) (*models.TokenPair, error)
}

// AuthService provides authentication-related operations:
//   - Register: create credential and application user in one transaction
//   - Login: verify credentials and mint tokens
//   - Refresh: rotate a refresh token in place and mint new tokens
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	tokens                       TokenCreator
	refreshTokenValidityDuration time.Duration
	log                          logging.Logger
	now                          func() time.Time
}

// NewAuthService constructs an AuthService using repositories, a token
// creator and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenCreator, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		tokens:                       tokens,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		log:                          log.With("module", "auth_service"),
		now:                          time.Now,
	}
}

// Register creates a credential with the Member role, its application user
// and a first refresh token, all in one transaction. Any failure rolls back
// every write.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.TokenPair, error) {
	var pair *models.TokenPair

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		creds := s.repomanager.Credentials(tx)

		credential, err := creds.Create(ctx, email, password)
		if err != nil {
			return err
		}

		if err := creds.AssignRole(ctx, credential.ID, common.RoleMember); err != nil {
			return err
		}

		userID, err := users.NewID()
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}

		user := &models.User{
			ID:         userID,
			Name:       name,
			Email:      credential.Email,
			CreatedAt:  s.now().UTC(),
			IdentityID: credential.ID,
		}
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}

		pair, err = s.issue(ctx, tx, credential, []string{common.RoleMember})
		return err
	})
	if err != nil {
		return nil, s.classify(ctx, "register", err)
	}

	s.log.Info(ctx, "user registered")
	return pair, nil
}

// Login verifies email and password and returns a new token pair backed by
// a fresh refresh-token row. Unknown email and wrong password are both
// reported as common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	creds := s.repomanager.Credentials(s.db)

	credential, err := creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			creds.VerifyPassword(nil, password)
			return nil, common.ErrorUnauthorized
		}
		return nil, s.classify(ctx, "login", err)
	}

	if !creds.VerifyPassword(credential, password) {
		return nil, common.ErrorUnauthorized
	}

	roles, err := creds.GetRoles(ctx, credential.ID)
	if err != nil {
		return nil, s.classify(ctx, "login", err)
	}

	pair, err := s.issue(ctx, s.db, credential, roles)
	if err != nil {
		return nil, s.classify(ctx, "login", err)
	}
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The stored row is
// rotated in place. Unknown, expired or concurrently rotated tokens yield
// common.ErrorUnauthorized and leave the store untouched.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	tokens := s.repomanager.RefreshTokens(s.db)

	row, err := tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.classify(ctx, "refresh", err)
	}

	now := s.now()
	if row.Expires.Before(now) {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrRefreshTokenExpired)
	}

	creds := s.repomanager.Credentials(s.db)

	credential, err := creds.FindByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.classify(ctx, "refresh", err)
	}

	roles, err := creds.GetRoles(ctx, credential.ID)
	if err != nil {
		return nil, s.classify(ctx, "refresh", err)
	}

	pair, err := s.tokens.Create(auth.TokenRequest{UserID: credential.ID, Email: credential.Email, Roles: roles})
	if err != nil {
		return nil, s.classify(ctx, "refresh", fmt.Errorf("%w: %w", common.ErrorInternal, err))
	}

	if err := tokens.Rotate(ctx, row.ID, row.Token, pair.RefreshToken, now.Add(s.refreshTokenValidityDuration)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, s.classify(ctx, "refresh", err)
	}

	return pair, nil
}

// issue mints a pair for credential and persists its refresh token through db.
func (s *AuthService) issue(ctx context.Context, db dbx.DBTX, credential *models.Credential, roles []string) (*models.TokenPair, error) {
	pair, err := s.tokens.Create(auth.TokenRequest{UserID: credential.ID, Email: credential.Email, Roles: roles})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	row := &models.RefreshToken{
		UserID:  credential.ID,
		Token:   pair.RefreshToken,
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, row); err != nil {
		return nil, err
	}

	return pair, nil
}

// classify passes domain errors through and reports everything else as
// common.ErrStoreUnavailable.
func (s *AuthService) classify(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorInternal):
		return err
	}
	s.log.Error(ctx, "store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
}
