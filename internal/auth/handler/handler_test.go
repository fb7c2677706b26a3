package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/auth/provider"
	"auth-gateway/internal/handshake"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/token"
	"auth-gateway/internal/user"
)

// memStore is an in-memory user.Store for handler tests.
type memStore struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*user.User
	// plaintext per user id; empty string means federated (no credential)
	passwords map[int64]string
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*user.User),
		passwords: make(map[int64]string),
	}
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *memStore) FindByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memStore) Create(_ context.Context, name, email, password string) (*user.User, error) {
	return m.insert(name, email, password, true)
}

func (m *memStore) CreateFederated(_ context.Context, name, email string) (*user.User, error) {
	return m.insert(name, email, "", false)
}

func (m *memStore) VerifyPassword(_ context.Context, id int64, password string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.passwords[id]
	if !ok || stored == "" {
		return false, nil
	}
	return stored == password, nil
}

func (m *memStore) insert(name, email, password string, withCredential bool) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return nil, user.ErrDuplicateEmail
		}
	}

	m.seq++
	u := &user.User{
		ID:        m.seq,
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	m.users[u.ID] = u
	if withCredential {
		m.passwords[u.ID] = password
	}

	copied := *u
	return &copied, nil
}

func (m *memStore) delete(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// fakeProvider satisfies provider.OAuthProvider without network I/O.
type fakeProvider struct {
	identity *auth.Identity
	err      error
}

func (f *fakeProvider) Name() string { return "google" }

func (f *fakeProvider) AuthCodeURL(state, codeChallenge string) string {
	return "https://accounts.google.example/auth?state=" + url.QueryEscape(state) +
		"&code_challenge=" + url.QueryEscape(codeChallenge)
}

func (f *fakeProvider) ExchangeCode(context.Context, string, string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type testEnv struct {
	router   *gin.Engine
	store    *memStore
	tokens   *token.Service
	provider *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := token.New(token.Config{
		Secret:   "0123456789abcdef0123456789abcdef",
		Issuer:   "auth-gateway",
		Audience: "auth-gateway-clients",
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	store := newMemStore()
	fp := &fakeProvider{}

	h := handler.NewHandler(
		provider.NewRegistry(fp),
		store,
		tokens,
		handshake.NewMemoryStore(),
		"http://localhost:3000",
		6,
	)

	router := gin.New()
	h.RegisterRoutes(router, middleware.GinRequireAuth(middleware.NewAuthMiddleware(tokens)))

	return &testEnv{router: router, store: store, tokens: tokens, provider: fp}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(t *testing.T, path string, headers map[string]string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeAuthResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegister(t *testing.T) {
	t.Run("creates user and issues token", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeAuthResponse(t, w)
		assert.Equal(t, true, body["success"])
		require.NotEmpty(t, body["token"])

		id, err := env.tokens.Validate(body["token"].(string))
		require.NoError(t, err)

		u := body["user"].(map[string]any)
		assert.Equal(t, float64(id), u["id"])
		assert.Equal(t, "Ada", u["name"])
		assert.Equal(t, "ada@example.com", u["email"])
		assert.Equal(t, true, u["isActive"])
	})

	t.Run("rejects short password", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "12345",
		}, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, env.store.count())
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "not-an-email",
			"password": "secret1",
		}, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, env.store.count())
	})

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "A@x.com",
			"password": "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.postJSON(t, "/auth/register", gin.H{
			"name":     "Other",
			"email":    "a@x.com",
			"password": "secret2",
		}, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeAuthResponse(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "email already registered", body["message"])
		assert.Equal(t, 1, env.store.count())
	})
}

func TestLogin(t *testing.T) {
	register := func(t *testing.T, env *testEnv) {
		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		env := newTestEnv(t)
		register(t, env)

		w := env.postJSON(t, "/auth/login", gin.H{
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeAuthResponse(t, w)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("unknown user and wrong password fail identically", func(t *testing.T) {
		env := newTestEnv(t)
		register(t, env)

		unknown := env.postJSON(t, "/auth/login", gin.H{
			"email":    "nobody@x.com",
			"password": "anything",
		}, nil)
		wrong := env.postJSON(t, "/auth/login", gin.H{
			"email":    "ada@example.com",
			"password": "wrongpassword",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	})

	t.Run("federated account cannot password-login", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.store.CreateFederated(context.Background(), "Ada1234", "ada@example.com")
		require.NoError(t, err)

		w := env.postJSON(t, "/auth/login", gin.H{
			"email":    "ada@example.com",
			"password": "anything",
		}, nil)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decodeAuthResponse(t, w)
		assert.Equal(t, "invalid email or password", body["message"])
	})
}

func TestMe(t *testing.T) {
	t.Run("returns current user", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		tok := decodeAuthResponse(t, w)["token"].(string)

		resp := env.get(t, "/auth/me", map[string]string{
			"Authorization": "Bearer " + tok,
		}, nil)

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeAuthResponse(t, resp)
		assert.Equal(t, "Ada", body["name"])
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, true, body["isActive"])
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.get(t, "/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("404 when the user vanished after issuance", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		tok := decodeAuthResponse(t, w)["token"].(string)

		id, err := env.tokens.Validate(tok)
		require.NoError(t, err)
		env.store.delete(id)

		resp := env.get(t, "/auth/me", map[string]string{
			"Authorization": "Bearer " + tok,
		}, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/logout", gin.H{}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("succeeds for an authenticated caller", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.postJSON(t, "/auth/register", gin.H{
			"name":     "Ada",
			"email":    "ada@example.com",
			"password": "secret1",
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		tok := decodeAuthResponse(t, w)["token"].(string)

		resp := env.postJSON(t, "/auth/logout", gin.H{}, map[string]string{
			"Authorization": "Bearer " + tok,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeAuthResponse(t, resp)
		assert.Equal(t, true, body["success"])
	})
}
