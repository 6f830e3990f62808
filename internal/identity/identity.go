// Package identity resolves the caller of a request.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/auth"
	"github.com/kotpos/api/internal/database"
)

// SessionCookie holds the signed session token.
const SessionCookie = "kotpos_session"

// ErrUnauthenticated means the request carries no usable identity.
var ErrUnauthenticated = errors.New("not authenticated")

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID `json:"id"`
	Role   string    `json:"role"`
	Name   string    `json:"name"`
}

// Provider resolves the identity of a request. Implementations return
// ErrUnauthenticated (possibly wrapped) when the caller is unknown.
type Provider interface {
	Identify(r *http.Request) (Identity, error)
}

// UserStore is satisfied by *database.Queries.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// SessionProvider validates the session token and then loads the user, so a
// role change or deactivation applies to tokens already issued.
type SessionProvider struct {
	secret string
	users  UserStore
}

func NewSessionProvider(secret string, users UserStore) *SessionProvider {
	return &SessionProvider{secret: secret, users: users}
}

func (p *SessionProvider) Identify(r *http.Request) (Identity, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}

	claims, err := auth.ValidateToken(p.secret, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := p.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return Identity{}, fmt.Errorf("%w: user is inactive", ErrUnauthenticated)
	}

	return FromUser(user), nil
}

// FromUser builds an identity from a stored user.
func FromUser(u database.User) Identity {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return Identity{UserID: u.ID, Role: u.Role, Name: name}
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
