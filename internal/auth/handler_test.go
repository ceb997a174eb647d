package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kedai-dimesem/storefront/internal/shared"
)

type authHarness struct {
	router http.Handler
	repo   *memoryRepo
	store  *shared.MemorySessionStore
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()
	repo := newMemoryRepo()
	svc := newTestService(repo)
	store := shared.NewMemorySessionStore()
	sessions := shared.NewSessionManager(store, "storefront_session", "secret", 24*time.Hour, false)

	r := chi.NewRouter()
	r.Use(sessions.Middleware(nil))
	NewHandler(nil, svc, sessions).MountRoutes(r, nil)
	return &authHarness{router: r, repo: repo, store: store}
}

func (h *authHarness) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "storefront_session" {
			return c
		}
	}
	return nil
}

func TestAuthFlow_RegisterLoginCheckLogout(t *testing.T) {
	h := newAuthHarness(t)

	rr := h.do(t, http.MethodPost, "/register", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var reg struct {
		Success bool  `json:"success"`
		UserID  int64 `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	assert.True(t, reg.Success)
	assert.Equal(t, int64(1), reg.UserID)

	rr = h.do(t, http.MethodPost, "/login", map[string]string{"email": "alice@x.com", "password": "password123"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var login struct {
		Success bool       `json:"success"`
		User    PublicUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.Equal(t, PublicUser{ID: 1, Name: "Alice", Role: shared.RoleUser}, login.User)
	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)

	rr = h.do(t, http.MethodGet, "/auth/check", nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var status SessionStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.User)
	assert.Equal(t, "Alice", status.User.Name)

	for i := 0; i < 2; i++ {
		rr = h.do(t, http.MethodPost, "/logout", nil, cookie)
		assert.Equal(t, http.StatusOK, rr.Code, "logout #%d", i+1)
	}

	rr = h.do(t, http.MethodGet, "/auth/check", nil, cookie)
	status = SessionStatus{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.False(t, status.Authenticated)
	assert.Nil(t, status.User)
}

func TestLogin_WrongPasswordCreatesNoSession(t *testing.T) {
	h := newAuthHarness(t)
	rr := h.do(t, http.MethodPost, "/register", map[string]string{
		"name": "Alice", "email": "alice@x.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = h.do(t, http.MethodPost, "/login", map[string]string{"email": "alice@x.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, sessionCookie(rr))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "wrong password")
}

func TestRegister_HTTPErrors(t *testing.T) {
	h := newAuthHarness(t)

	rr := h.do(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body struct {
		Missing map[string]bool `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Missing["name"])
	assert.True(t, body.Missing["password"])

	rr = h.do(t, http.MethodPost, "/register", map[string]string{"name": "A", "email": "a@x.com", "password": "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, http.MethodPost, "/register", map[string]string{"name": "A", "email": "a@x.com", "password": "123456"}, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = h.do(t, http.MethodPost, "/register", map[string]string{"name": "B", "email": "a@x.com", "password": "123456"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}
