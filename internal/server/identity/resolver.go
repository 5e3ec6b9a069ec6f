// Package identity maps the subject of an authenticated access token to the
// id of the application user linked to it.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/devhabit/internal/common"
	"github.com/dmitrijs2005/devhabit/internal/logging"
	"github.com/dmitrijs2005/devhabit/internal/server/auth"
	"github.com/dmitrijs2005/devhabit/internal/server/cache"
)

// KeyPrefix namespaces resolver entries in the cache.
const KeyPrefix = "users:id:"

// UserLookup finds the application user linked to a credential.
// users.Repository implements it.
type UserLookup interface {
	FindIDByIdentityID(ctx context.Context, identityID string) (string, error)
}

// Resolver caches subject -> user id lookups. Only positive results are
// cached, so a user created after a miss is found on the next request.
type Resolver struct {
	cache cache.Cache
	users UserLookup
	log   logging.Logger
}

func NewResolver(c cache.Cache, users UserLookup, log logging.Logger) *Resolver {
	return &Resolver{cache: c, users: users, log: log.With("module", "identity")}
}

// Resolve returns the application user id for p, or "" when p carries no
// subject or no user is linked to it. Store failures are returned wrapped in
// common.ErrStoreUnavailable. A failing cache is logged and bypassed.
func (r *Resolver) Resolve(ctx context.Context, p *auth.Principal) (string, error) {
	if p == nil || p.SubjectID == "" {
		return "", nil
	}

	key := KeyPrefix + p.SubjectID

	id, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Warn(ctx, "identity cache read failed", "error", err)
	} else if ok {
		return id, nil
	}

	id, err = r.users.FindIDByIdentityID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if err := r.cache.Set(ctx, key, id); err != nil {
		r.log.Warn(ctx, "identity cache write failed", "error", err)
	}

	return id, nil
}
