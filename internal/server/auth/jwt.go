// Package auth issues and validates access tokens and carries the
// authenticated principal through request contexts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/server/config"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// refreshTokenSize is the number of random bytes behind a refresh token.
const refreshTokenSize = 32

// Claims are the access token claims: registered claims (sub, iss, aud, exp,
// iat, jti) plus the caller's email and roles.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"role,omitempty"`
}

// TokenRequest is the input of TokenIssuer.Create.
type TokenRequest struct {
	UserID string
	Email  string
	Roles  []string
}

// TokenIssuer signs access tokens with a symmetric key and mints opaque
// refresh tokens.
type TokenIssuer struct {
	secret              []byte
	issuer              string
	audience            string
	accessTokenValidity time.Duration
	now                 func() time.Time
}

// Option customises a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) { i.now = now }
}

func NewTokenIssuer(cfg *config.Config, opts ...Option) *TokenIssuer {
	i := &TokenIssuer{
		secret:              []byte(cfg.SecretKey),
		issuer:              cfg.Issuer,
		audience:            cfg.Audience,
		accessTokenValidity: cfg.AccessTokenValidityDuration,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Create returns a signed access token for req and an independent random
// refresh token.
func (i *TokenIssuer) Create(req TokenRequest) (*models.TokenPair, error) {
	access, err := i.generateAccessToken(req)
	if err != nil {
		return nil, err
	}

	refresh, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *TokenIssuer) generateAccessToken(req TokenRequest) (string, error) {
	now := i.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.UserID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTokenValidity)),
			ID:        uuid.NewString(),
		},
		Email: req.Email,
		Roles: req.Roles,
	})

	return token.SignedString(i.secret)
}

// Parse validates signature, algorithm, issuer, audience and expiry and
// returns the principal the token was issued for.
// Expired tokens yield common.ErrTokenExpired, everything else
// common.ErrInvalidToken.
func (i *TokenIssuer) Parse(tokenString string) (*Principal, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Principal{SubjectID: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}
