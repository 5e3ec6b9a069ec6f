package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// fakeStore keeps all three tables in memory. Writes made through a *sql.Tx
// handle are staged and only applied by commit, so tests can observe the
// effect of a rolled back registration.
type fakeStore struct {
	mu sync.Mutex

	credentials map[string]*models.Credential
	roles       map[string][]string
	users       map[string]*models.User
	tokens      map[string]*models.RefreshToken

	staged []func()

	boundToTx  []string
	boundToDB  []string
	verified   []*models.Credential
	seq        int
	failCreate map[string]error
	failRead   map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		credentials: map[string]*models.Credential{},
		roles:       map[string][]string{},
		users:       map[string]*models.User{},
		tokens:      map[string]*models.RefreshToken{},
		failCreate:  map[string]error{},
		failRead:    map[string]error{},
	}
}

func (s *fakeStore) write(db dbx.DBTX, fn func()) {
	if _, ok := db.(*sql.Tx); ok {
		s.staged = append(s.staged, fn)
		return
	}
	fn()
}

func (s *fakeStore) commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fn := range s.staged {
		fn()
	}
	s.staged = nil
}

func (s *fakeStore) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = nil
}

func (s *fakeStore) tokensOf(userID string) []*models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// addCredential seeds a credential whose password is "Passw0rd!".
func (s *fakeStore) addCredential(id, email string, roles ...string) *models.Credential {
	c := &models.Credential{ID: id, Email: email, NormalizedEmail: credentials.NormalizeEmail(email), PasswordHash: "Passw0rd!"}
	s.credentials[id] = c
	s.roles[id] = roles
	return c
}

type fakeCredentials struct {
	s  *fakeStore
	db dbx.DBTX
}

func (f *fakeCredentials) Create(ctx context.Context, email, password string) (*models.Credential, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failCreate["credentials"]; err != nil {
		return nil, err
	}
	if verr := credentials.Validate(email, password); verr != nil {
		return nil, verr
	}
	for _, c := range f.s.credentials {
		if c.NormalizedEmail == credentials.NormalizeEmail(email) {
			return nil, common.NewValidationError(credentials.CodeDuplicateUserName, "taken")
		}
	}
	f.s.seq++
	c := &models.Credential{ID: fmt.Sprintf("cred-%d", f.s.seq), Email: email, NormalizedEmail: credentials.NormalizeEmail(email), PasswordHash: password}
	f.s.write(f.db, func() { f.s.credentials[c.ID] = c })
	return c, nil
}

func (f *fakeCredentials) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failRead["credentials"]; err != nil {
		return nil, err
	}
	for _, c := range f.s.credentials {
		if c.NormalizedEmail == credentials.NormalizeEmail(email) {
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCredentials) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failRead["credentials"]; err != nil {
		return nil, err
	}
	if c, ok := f.s.credentials[id]; ok {
		return c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCredentials) VerifyPassword(c *models.Credential, password string) bool {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.verified = append(f.s.verified, c)
	return c != nil && c.PasswordHash == password
}

func (f *fakeCredentials) AssignRole(ctx context.Context, id, role string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failCreate["roles"]; err != nil {
		return err
	}
	f.s.write(f.db, func() { f.s.roles[id] = append(f.s.roles[id], role) })
	return nil
}

func (f *fakeCredentials) GetRoles(ctx context.Context, id string) ([]string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failRead["roles"]; err != nil {
		return nil, err
	}
	return f.s.roles[id], nil
}

type fakeUsers struct {
	s  *fakeStore
	db dbx.DBTX
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failCreate["users"]; err != nil {
		return err
	}
	f.s.write(f.db, func() { f.s.users[u.ID] = u })
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failRead["users"]; err != nil {
		return nil, err
	}
	if u, ok := f.s.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) FindIDByIdentityID(ctx context.Context, identityID string) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.IdentityID == identityID {
			return u.ID, nil
		}
	}
	return "", common.ErrorNotFound
}

type fakeRefreshTokens struct {
	s  *fakeStore
	db dbx.DBTX
}

func (f *fakeRefreshTokens) Create(ctx context.Context, t *models.RefreshToken) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failCreate["tokens"]; err != nil {
		return err
	}
	if t.ID == "" {
		f.s.seq++
		t.ID = fmt.Sprintf("rt-%d", f.s.seq)
	}
	row := *t
	f.s.write(f.db, func() { f.s.tokens[row.ID] = &row })
	return nil
}

func (f *fakeRefreshTokens) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failRead["tokens"]; err != nil {
		return nil, err
	}
	for _, t := range f.s.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshTokens) Rotate(ctx context.Context, id, oldToken, newToken string, expires time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if err := f.s.failCreate["rotate"]; err != nil {
		return err
	}
	t, ok := f.s.tokens[id]
	if !ok || t.Token != oldToken {
		return common.ErrorNotFound
	}
	t.Token = newToken
	t.Expires = expires
	return nil
}

// fakeRepoManager hands out fakes over one shared fakeStore and records
// whether each repository was bound to a transaction or to the pool.
type fakeRepoManager struct {
	s *fakeStore
}

func (m *fakeRepoManager) bind(name string, db dbx.DBTX) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := db.(*sql.Tx); ok {
		m.s.boundToTx = append(m.s.boundToTx, name)
		return
	}
	m.s.boundToDB = append(m.s.boundToDB, name)
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentials.Repository {
	m.bind("credentials", db)
	return &fakeCredentials{s: m.s, db: db}
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	m.bind("users", db)
	return &fakeUsers{s: m.s, db: db}
}

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	m.bind("refreshtokens", db)
	return &fakeRefreshTokens{s: m.s, db: db}
}
