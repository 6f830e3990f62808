package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kotpos/api/internal/enum"
	"github.com/kotpos/api/internal/identity/identitytest"
	"github.com/kotpos/api/internal/middleware"
)

// One fixed identity per role, selected per request with X-Test-Role.
var (
	adminID   = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	cashierID = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	keeperID  = uuid.MustParse("00000000-0000-0000-0000-00000000000d")
	officerID = uuid.MustParse("00000000-0000-0000-0000-00000000000e")
	barmanID  = uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	testIdentities = identitytest.ByHeader{
		enum.RoleAdmin:              {UserID: adminID, Role: enum.RoleAdmin, Name: "John Admin"},
		enum.RoleRestaurantCashier:  {UserID: cashierID, Role: enum.RoleRestaurantCashier, Name: "Jane Cashier"},
		enum.RoleStoreKeeper:        {UserID: keeperID, Role: enum.RoleStoreKeeper, Name: "Bob Store"},
		enum.RoleAuthorisingOfficer: {UserID: officerID, Role: enum.RoleAuthorisingOfficer, Name: "Alice Officer"},
		enum.RoleBarman:             {UserID: barmanID, Role: enum.RoleBarman, Name: "Mike Bar"},
	}
)

// newRouter mounts routes under prefix behind Authenticate.
func newRouter(prefix string, register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testIdentities))
		r.Route(prefix, register)
	})
	return r
}

// do sends a request as role. An empty role sends no identity. A nil body
// sends an empty body.
func do(t *testing.T, h http.Handler, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var resp []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func expectMessage(t *testing.T, rr *httptest.ResponseRecorder, want string) {
	t.Helper()
	resp := decodeObject(t, rr)
	if resp["message"] != want {
		t.Fatalf("message: got %v, want %q", resp["message"], want)
	}
}

func newGet(path string) *http.Request {
	return httptest.NewRequest("GET", path, nil)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
