package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/users"
)

// RepositoryManager binds repositories to a DBTX so several of them can share
// one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Credentials(db dbx.DBTX) credentials.Repository
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
