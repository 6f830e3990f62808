package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kotpos/api/internal/auth"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	GetUserByUsername(ctx context.Context, username string) (database.User, error)
	ListDemoUsers(ctx context.Context) ([]database.User, error)
}

// AuthOptions configures session issuance.
type AuthOptions struct {
	JWTSecret  string
	SessionTTL time.Duration
	// DemoLogin enables password login and account listing for seeded
	// demo users.
	DemoLogin bool
	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie bool
}

// AuthHandler handles session endpoints. Interactive OAuth login happens
// elsewhere; it hands over a session token issued with the same secret.
type AuthHandler struct {
	store AuthStore
	opts  AuthOptions
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, opts AuthOptions) *AuthHandler {
	return &AuthHandler{store: store, opts: opts}
}

// RegisterRoutes registers the public auth endpoints. /auth/demo-logout is
// kept as an alias of /auth/logout for existing clients.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/demo-logout", h.Logout)
	if h.opts.DemoLogin {
		r.Post("/auth/demo-login", h.DemoLogin)
	}
}

// RegisterSessionRoutes registers endpoints that need an authenticated caller.
func (h *AuthHandler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/auth/user", h.CurrentUser)
	if h.opts.DemoLogin {
		r.Get("/auth/test-accounts", h.TestAccounts)
		r.Get("/test-accounts", h.TestAccounts)
	}
}

// --- Request / Response types ---

type demoLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	IsDemo    bool      `json:"isDemo"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// --- Handlers ---

// CurrentUser handles GET /auth/user.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(r.Context(), caller.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeInternal(w, "get current user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// DemoLogin handles POST /auth/demo-login. Only active demo accounts with a
// stored password hash can log in this way.
func (h *AuthHandler) DemoLogin(w http.ResponseWriter, r *http.Request) {
	var req demoLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeInternal(w, "get demo user", err)
		return
	}

	if !user.IsDemo || !user.IsActive || !user.PasswordHash.Valid {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.opts.JWTSecret, user.ID, user.Role, h.opts.SessionTTL)
	if err != nil {
		writeInternal(w, "generate session token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Demo login successful",
		Token:   token,
		User:    toUserResponse(user),
	})
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeMessage(w, http.StatusOK, "Logout successful")
}

// TestAccounts handles GET /auth/test-accounts and GET /test-accounts.
func (h *AuthHandler) TestAccounts(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListDemoUsers(r.Context())
	if err != nil {
		writeInternal(w, "list demo users", err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toUserResponse(u database.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     textPtr(u.Email),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		IsDemo:    u.IsDemo,
	}
}
