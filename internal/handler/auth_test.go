package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kotpos/api/internal/auth"
	"github.com/kotpos/api/internal/database"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/handler"
	"github.com/kotpos/api/internal/identity"
	"github.com/kotpos/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	byID       map[uuid.UUID]database.User
	byUsername map[string]database.User
}

func newMockAuthStore(users ...database.User) *mockAuthStore {
	m := &mockAuthStore{
		byID:       make(map[uuid.UUID]database.User),
		byUsername: make(map[string]database.User),
	}
	for _, u := range users {
		m.byID[u.ID] = u
		m.byUsername[u.Username] = u
	}
	return m
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) GetUserByUsername(_ context.Context, username string) (database.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) ListDemoUsers(context.Context) ([]database.User, error) {
	var out []database.User
	for _, u := range m.byID {
		if u.IsDemo {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- Helpers ---

func hashPassword(t *testing.T, password string) pgtype.Text {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return pgtype.Text{String: string(h), Valid: true}
}

func demoUser(t *testing.T, username, password, role string) database.User {
	t.Helper()
	return database.User{
		ID:           uuid.New(),
		Username:     username,
		FirstName:    "Jane",
		LastName:     "Cashier",
		Role:         role,
		IsActive:     true,
		IsDemo:       true,
		PasswordHash: hashPassword(t, password),
	}
}

func authRouter(store *mockAuthStore, demo bool) http.Handler {
	h := handler.NewAuthHandler(store, handler.AuthOptions{
		JWTSecret:  testSecret,
		SessionTTL: time.Hour,
		DemoLogin:  demo,
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(identity.NewSessionProvider(testSecret, store)))
		h.RegisterSessionRoutes(r)
	})
	return r
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == identity.SessionCookie {
			return c
		}
	}
	return nil
}

// --- Demo login ---

func TestDemoLogin_IssuesSession(t *testing.T) {
	user := demoUser(t, "cashier", "cashier123", enum.RoleRestaurantCashier)
	router := authRouter(newMockAuthStore(user), true)

	rr := do(t, router, "POST", "/auth/demo-login", "", map[string]string{"username": "cashier", "password": "cashier123"})
	expectStatus(t, rr, http.StatusOK)

	cookie := sessionCookie(rr)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	claims, err := auth.ValidateToken(testSecret, cookie.Value)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enum.RoleRestaurantCashier {
		t.Errorf("claims: got %+v", claims)
	}

	resp := decodeObject(t, rr)
	if resp["token"] != cookie.Value {
		t.Error("response token should match cookie")
	}
	if u := resp["user"].(map[string]any); u["username"] != "cashier" || u["role"] != enum.RoleRestaurantCashier {
		t.Errorf("user: got %v", u)
	}
	if _, leaked := resp["user"].(map[string]any)["passwordHash"]; leaked {
		t.Error("password hash must not be returned")
	}
}

func TestDemoLogin_Rejections(t *testing.T) {
	demo := demoUser(t, "officer", "officer123", enum.RoleAuthorisingOfficer)
	inactive := demoUser(t, "old", "old123", enum.RoleBarman)
	inactive.IsActive = false
	regular := demoUser(t, "real", "real123", enum.RoleAdmin)
	regular.IsDemo = false
	router := authRouter(newMockAuthStore(demo, inactive, regular), true)

	tests := []struct {
		name, username, password string
		want                     int
	}{
		{"wrong password", "officer", "nope", http.StatusUnauthorized},
		{"unknown user", "ghost", "x", http.StatusUnauthorized},
		{"inactive", "old", "old123", http.StatusUnauthorized},
		{"not a demo account", "real", "real123", http.StatusUnauthorized},
		{"missing password", "officer", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, router, "POST", "/auth/demo-login", "", map[string]string{"username": tt.username, "password": tt.password})
			expectStatus(t, rr, tt.want)
			if sessionCookie(rr) != nil {
				t.Error("no session cookie expected")
			}
		})
	}
}

func TestDemoLogin_DisabledRoutesAreAbsent(t *testing.T) {
	user := demoUser(t, "cashier", "cashier123", enum.RoleRestaurantCashier)
	router := authRouter(newMockAuthStore(user), false)

	rr := do(t, router, "POST", "/auth/demo-login", "", map[string]string{"username": "cashier", "password": "cashier123"})
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Session endpoints ---

func TestCurrentUser_UsesSessionToken(t *testing.T) {
	user := demoUser(t, "barman", "bar123", enum.RoleBarman)
	store := newMockAuthStore(user)
	router := authRouter(store, true)

	token, err := auth.GenerateToken(testSecret, user.ID, user.Role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := newGet("/auth/user")
	req.AddCookie(&http.Cookie{Name: identity.SessionCookie, Value: token})
	rr := serve(router, req)
	expectStatus(t, rr, http.StatusOK)
	if resp := decodeObject(t, rr); resp["id"] != user.ID.String() || resp["role"] != enum.RoleBarman {
		t.Errorf("unexpected user: %v", resp)
	}

	rr = serve(router, newGet("/auth/user"))
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestTestAccounts(t *testing.T) {
	user := demoUser(t, "storekeeper", "store123", enum.RoleStoreKeeper)
	store := newMockAuthStore(user)

	token, err := auth.GenerateToken(testSecret, user.ID, user.Role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	for _, path := range []string{"/auth/test-accounts", "/test-accounts"} {
		t.Run(path, func(t *testing.T) {
			req := newGet(path)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := serve(authRouter(store, true), req)
			expectStatus(t, rr, http.StatusOK)
			if list := decodeList(t, rr); len(list) != 1 || list[0]["username"] != "storekeeper" {
				t.Errorf("unexpected accounts: %v", list)
			}

			req = newGet(path)
			rr = serve(authRouter(store, true), req)
			expectStatus(t, rr, http.StatusUnauthorized)

			req = newGet(path)
			req.Header.Set("Authorization", "Bearer "+token)
			rr = serve(authRouter(store, false), req)
			expectStatus(t, rr, http.StatusNotFound)
		})
	}
}

func TestLogout_ExpiresCookie(t *testing.T) {
	for _, path := range []string{"/auth/logout", "/auth/demo-logout"} {
		t.Run(path, func(t *testing.T) {
			rr := do(t, authRouter(newMockAuthStore(), true), "POST", path, "", nil)
			expectStatus(t, rr, http.StatusOK)

			cookie := sessionCookie(rr)
			if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
				t.Errorf("cookie should be expired: %+v", cookie)
			}
		})
	}
}
