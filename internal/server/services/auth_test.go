package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/config"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/dmitrijs2005/devhabit/internal/server/repositories/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k-k-k-k-k-k-k-k-k-k-k-k-k-k-k-k",
		Issuer:                       "dev-habit.api",
		Audience:                     "dev-habit.app",
		AccessTokenValidityDuration:  30 * time.Minute,
		RefreshTokenValidityDuration: 7 * 24 * time.Hour,
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fixture struct {
	svc    *AuthService
	store  *fakeStore
	mock   sqlmock.Sqlmock
	issuer *auth.TokenIssuer
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newFakeStore()
	f := &fixture{store: store, mock: mock, now: testNow}
	f.issuer = auth.NewTokenIssuer(testConfig(), auth.WithClock(func() time.Time { return f.now }))
	f.svc = NewAuthService(db, &fakeRepoManager{s: store}, f.issuer, testConfig(), logging.Discard())
	f.svc.now = func() time.Time { return f.now }
	return f
}

type failingIssuer struct{}

func (failingIssuer) Create(auth.TokenRequest) (*models.TokenPair, error) { return nil, errBoom }

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	pair, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
	f.store.commit()

	require.Len(t, f.store.credentials, 1)
	require.Len(t, f.store.users, 1)
	require.Len(t, f.store.tokens, 1)

	var cred *models.Credential
	for _, c := range f.store.credentials {
		cred = c
	}
	var user *models.User
	for _, u := range f.store.users {
		user = u
	}

	assert.Equal(t, cred.ID, user.IdentityID)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, testNow, user.CreatedAt)
	assert.Equal(t, []string{common.RoleMember}, f.store.roles[cred.ID])

	principal, err := f.issuer.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, cred.ID, principal.SubjectID)
	assert.Equal(t, "a@b.com", principal.Email)
	assert.Equal(t, []string{common.RoleMember}, principal.Roles)

	rows := f.store.tokensOf(cred.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, pair.RefreshToken, rows[0].Token)
	assert.Equal(t, testNow.Add(7*24*time.Hour), rows[0].Expires)

	assert.ElementsMatch(t, []string{"credentials", "users", "refreshtokens"}, f.store.boundToTx)
	assert.Empty(t, f.store.boundToDB)
}

func TestRegister_UserInsertFailsRollsBackCredential(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate["users"] = errBoom
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, err, errBoom)
	require.NoError(t, f.mock.ExpectationsWereMet())
	f.store.rollback()

	assert.Empty(t, f.store.credentials)
	assert.Empty(t, f.store.users)
	assert.Empty(t, f.store.tokens)
}

func TestRegister_RefreshInsertFailsRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate["tokens"] = errBoom
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_ValidationErrorPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("existing", "a@b.com", common.RoleMember)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "A@b.com", "Passw0rd!", "Alice")

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, credentials.CodeDuplicateUserName)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_OverlongPasswordIsValidationError(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "a@b.com", "Aa1!"+strings.Repeat("x", 80), "Alice")

	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, credentials.CodePasswordTooLong)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Empty(t, f.store.credentials)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_RoleAssignmentFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failCreate["roles"] = common.NewValidationError(credentials.CodeInvalidRoleName, "bad role")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	assert.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegister_BeginFails(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin().WillReturnError(errBoom)

	_, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestRegister_IssuerFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.tokens = failingIssuer{}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "a@b.com", "Passw0rd!", "Alice")
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com", common.RoleMember, common.RoleAdmin)

	pair, err := f.svc.Login(context.Background(), "a@b.com", "Passw0rd!")
	require.NoError(t, err)

	p, err := f.issuer.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.SubjectID)
	assert.ElementsMatch(t, []string{common.RoleMember, common.RoleAdmin}, p.Roles)

	_, err = f.svc.Login(context.Background(), "a@b.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Len(t, f.store.tokensOf("id-1"), 2, "every login inserts a fresh row")
}

func TestLogin_Unauthorized(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com")

	_, err := f.svc.Login(context.Background(), "a@b.com", "wrong")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.svc.Login(context.Background(), "unknown@x.com", "x")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	assert.Empty(t, f.store.tokens)
	require.Len(t, f.store.verified, 2, "unknown email still runs a password comparison")
	assert.NotNil(t, f.store.verified[0])
	assert.Nil(t, f.store.verified[1])
}

func TestLogin_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failRead["credentials"] = errBoom

	_, err := f.svc.Login(context.Background(), "a@b.com", "Passw0rd!")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_RolesFailure(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com")
	f.store.failRead["roles"] = errBoom

	_, err := f.svc.Login(context.Background(), "a@b.com", "Passw0rd!")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Empty(t, f.store.tokens)
}

func seedToken(f *fixture, userID, token string, expires time.Time) *models.RefreshToken {
	row := &models.RefreshToken{ID: "rt-seed", UserID: userID, Token: token, Expires: expires}
	f.store.tokens[row.ID] = row
	return row
}

func TestRefresh_RotatesInPlace(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com", common.RoleMember)
	oldExpires := testNow.Add(time.Hour)
	seedToken(f, "id-1", "old-token", oldExpires)

	f.now = testNow.Add(time.Minute)
	pair, err := f.svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)

	rows := f.store.tokensOf("id-1")
	require.Len(t, rows, 1, "no new row is inserted")
	assert.Equal(t, "rt-seed", rows[0].ID)
	assert.Equal(t, pair.RefreshToken, rows[0].Token)
	assert.NotEqual(t, "old-token", rows[0].Token)
	assert.True(t, rows[0].Expires.After(oldExpires))

	p, err := f.issuer.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", p.Email)

	_, err = f.svc.Refresh(context.Background(), "old-token")
	assert.ErrorIs(t, err, common.ErrorUnauthorized, "old value is no longer usable")
}

func TestRefresh_ExpiredLeavesRowUnchanged(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com")
	expires := testNow.Add(-time.Second)
	seedToken(f, "id-1", "stale", expires)

	_, err := f.svc.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)

	row := f.store.tokens["rt-seed"]
	assert.Equal(t, "stale", row.Token)
	assert.Equal(t, expires, row.Expires)
}

func TestRefresh_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refresh(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefresh_ConcurrentRotation(t *testing.T) {
	f := newFixture(t)
	f.store.addCredential("id-1", "a@b.com")
	seedToken(f, "id-1", "tok", testNow.Add(time.Hour))

	// Someone else rotates the row between lookup and update.
	f.store.failCreate["rotate"] = common.ErrorNotFound

	_, err := f.svc.Refresh(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefresh_StoreFailures(t *testing.T) {
	f := newFixture(t)
	f.store.failRead["tokens"] = errBoom

	_, err := f.svc.Refresh(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	f = newFixture(t)
	f.store.addCredential("id-1", "a@b.com")
	seedToken(f, "id-1", "tok", testNow.Add(time.Hour))
	f.store.failCreate["rotate"] = errBoom

	_, err = f.svc.Refresh(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Equal(t, "tok", f.store.tokens["rt-seed"].Token)
}

func TestRefresh_CredentialGone(t *testing.T) {
	f := newFixture(t)
	seedToken(f, "ghost", "tok", testNow.Add(time.Hour))

	_, err := f.svc.Refresh(context.Background(), "tok")
	assert.True(t, errors.Is(err, common.ErrorUnauthorized))
}
