// Package credentials provides the PostgreSQL-backed identity store: user
// credentials with bcrypt password hashes and their role memberships.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/dbx"
	"github.com/dmitrijs2005/devhabit/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// dummyHashes holds one throwaway hash per bcrypt cost. VerifyPassword
// compares against it when there is no credential so that unknown emails
// cost as much as wrong passwords.
var dummyHashes sync.Map

func dummyHash(cost int) []byte {
	if h, ok := dummyHashes.Load(cost); ok {
		return h.([]byte)
	}
	h, err := bcrypt.GenerateFromPassword([]byte("devhabit-dummy-password"), cost)
	if err != nil {
		return nil
	}
	actual, _ := dummyHashes.LoadOrStore(cost, h)
	return actual.([]byte)
}

// PostgresRepository implements Repository over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db         dbx.DBTX
	bcryptCost int
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, bcryptCost: bcrypt.DefaultCost}
}

// Create validates email and password, hashes the password and inserts a new
// credential. Policy violations and a taken email are reported as
// *common.ValidationError.
func (r *PostgresRepository) Create(ctx context.Context, email, password string) (*models.Credential, error) {
	if verr := Validate(email, password); verr != nil {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, common.NewValidationError(CodePasswordTooLong, "Passwords must be at most 72 bytes.")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	c := &models.Credential{
		ID:              uuid.NewString(),
		Email:           email,
		NormalizedEmail: NormalizeEmail(email),
		PasswordHash:    string(hash),
	}

	query :=
		`INSERT INTO identity.users (id, email, normalized_email, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at_utc
		 `

	err = r.db.QueryRowContext(ctx, query, c.ID, c.Email, c.NormalizedEmail, c.PasswordHash).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.NewValidationError(CodeDuplicateUserName, "Username '"+email+"' is already taken.")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	query :=
		`SELECT id, email, normalized_email, password_hash, created_at_utc
		 FROM identity.users
		 WHERE normalized_email = $1
		 `
	return r.findOne(ctx, query, NormalizeEmail(email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	query :=
		`SELECT id, email, normalized_email, password_hash, created_at_utc
		 FROM identity.users
		 WHERE id = $1
		 `
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*models.Credential, error) {
	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&c.ID, &c.Email, &c.NormalizedEmail, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// VerifyPassword reports whether password matches the stored hash. A nil
// credential never matches but still pays for one bcrypt comparison.
func (r *PostgresRepository) VerifyPassword(credential *models.Credential, password string) bool {
	if credential == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(r.bcryptCost), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password)) == nil
}

// AssignRole adds credentialID to the role named role. An unknown role is
// reported as a *common.ValidationError with CodeInvalidRoleName.
func (r *PostgresRepository) AssignRole(ctx context.Context, credentialID, role string) error {
	query :=
		`INSERT INTO identity.user_roles (user_id, role_id)
		 SELECT $1, id FROM identity.roles WHERE normalized_name = $2
		 ON CONFLICT DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, credentialID, strings.ToUpper(role))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.NewValidationError(CodeInvalidRoleName, "Role name '"+role+"' is invalid.")
	}
	return nil
}

// GetRoles lists the role names of credentialID in name order.
func (r *PostgresRepository) GetRoles(ctx context.Context, credentialID string) ([]string, error) {
	query :=
		`SELECT r.name
		 FROM identity.roles r
		 JOIN identity.user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := r.db.QueryContext(ctx, query, credentialID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	roles := make([]string, 0, 1)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return roles, nil
}
