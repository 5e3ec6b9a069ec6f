// Package rest exposes the DevHabit identity API over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*models.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenParser validates bearer access tokens. *auth.TokenIssuer implements it.
type TokenParser interface {
	Parse(token string) (*auth.Principal, error)
}

// IdentityResolver maps a principal to its application user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, p *auth.Principal) (string, error)
}

// Pinger reports database liveness. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Auth     AuthService
	Users    UserService
	Tokens   TokenParser
	Identity IdentityResolver
	DB       Pinger
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, deps Deps) *Server {
	logger := l.With("module", "http_server")

	engine := gin.New()
	engine.Use(requestID(), accessLog(logger), recovery(logger))
	setupRoutes(engine, deps)

	return &Server{address: address, engine: engine, logger: logger}
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
