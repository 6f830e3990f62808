// Package identitytest provides identity providers for tests.
package identitytest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kotpos/api/internal/identity"
)

// Static returns the same identity for every request. A zero UserID means
// every request is unauthenticated.
type Static struct {
	Identity identity.Identity
}

func (s Static) Identify(r *http.Request) (identity.Identity, error) {
	if s.Identity.UserID == uuid.Nil {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return s.Identity, nil
}

// As returns a Static provider for a fresh user with the given role.
func As(role string) Static {
	return Static{Identity: identity.Identity{UserID: uuid.New(), Role: role, Name: role}}
}

// ByHeader picks the identity from the X-Test-Role header, so one router can
// serve requests from several roles in a test.
type ByHeader map[string]identity.Identity

func (b ByHeader) Identify(r *http.Request) (identity.Identity, error) {
	id, ok := b[r.Header.Get("X-Test-Role")]
	if !ok {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return id, nil
}
