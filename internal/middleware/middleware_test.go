package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devicelink/core/internal/database"
	"github.com/devicelink/core/internal/models"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	hits map[string]int64
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, hits: map[string]int64{}}
}

func (m *memStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.hits[key], nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, admin, suspended bool) (*models.UserModel, string) {
	t.Helper()
	u := &models.UserModel{Username: username, Password: "x", IsAdmin: admin, IsSuspended: suspended}
	require.NoError(t, db.Create(u).Error)
	token, _, err := sessionpkg.Issue(db, u.ID, "", "", time.Hour)
	require.NoError(t, err)
	return u, token
}

func do(r http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(`{"a":1}`))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	db := newDB(t)
	_, aliceToken := seedUser(t, db, "alice", false, false)
	_, bobToken := seedUser(t, db, "bob", false, true)

	r := gin.New()
	r.Use(Auth(db))
	handler := func(c *gin.Context) { c.String(http.StatusOK, CurrentUser(c).Username) }
	r.GET("/me", handler)
	r.POST("/me", handler)

	tests := []struct {
		name   string
		method string
		token  string
		status int
		body   string
	}{
		{"no token", http.MethodGet, "", http.StatusUnauthorized, ""},
		{"garbage", http.MethodGet, "abc", http.StatusUnauthorized, ""},
		{"valid", http.MethodGet, aliceToken, http.StatusOK, "alice"},
		{"suspended read", http.MethodGet, bobToken, http.StatusOK, "bob"},
		{"suspended write", http.MethodPost, bobToken, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, "/me", tt.token)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestAuth_RevokedSession(t *testing.T) {
	db := newDB(t)
	u, token := seedUser(t, db, "alice", false, false)
	require.NoError(t, sessionpkg.RevokeAll(db, u.ID))

	r := gin.New()
	r.GET("/me", Auth(db), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", token).Code)
}

func TestOptionalAuthAndRequireAdmin(t *testing.T) {
	db := newDB(t)
	_, userToken := seedUser(t, db, "alice", false, false)
	_, adminToken := seedUser(t, db, "root", true, false)

	r := gin.New()
	r.GET("/who", OptionalAuth(db), func(c *gin.Context) {
		if u := CurrentUser(c); u != nil {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/admin", Auth(db), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "anonymous", do(r, http.MethodGet, "/who", "").Body.String())
	assert.Equal(t, "anonymous", do(r, http.MethodGet, "/who", "broken").Body.String())
	assert.Equal(t, "alice", do(r, http.MethodGet, "/who", userToken).Body.String())

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", userToken).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", adminToken).Code)
}

func TestLegacyIdentity(t *testing.T) {
	db := newDB(t)
	_, token := seedUser(t, db, "alice", false, false)

	r := gin.New()
	r.PUT("/x", Auth(db), LegacyIdentity("username"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/x", token).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, "/x?username=alice", token).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPut, "/x?username=mallory", token).Code)
}

func TestRateLimit(t *testing.T) {
	store := newMemStore()
	r := gin.New()
	r.POST("/login", RateLimit(store, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login", "").Code)
	w := do(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestIdempotence(t *testing.T) {
	store := newMemStore()
	status := http.StatusCreated
	r := gin.New()
	r.POST("/listings", Idempotence(store), func(c *gin.Context) { c.Status(status) })

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/listings", "tok").Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/listings", "tok").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/listings", "other").Code, "different caller")
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/listings", "").Code, "anonymous requests are not guarded")
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/listings", "").Code)

	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/listings", "third").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/listings", "third").Code, "failures release the key")
}

func TestIdempotence_HeaderScopedToCallerAndRoute(t *testing.T) {
	store := newMemStore()
	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusCreated) }
	r.POST("/listings", Idempotence(store), ok)
	r.POST("/admin/warning", Idempotence(store), ok)

	post := func(path, token string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"a":1}`))
		req.Header.Set(IdempotenceHeader, "submit-1")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("/listings", "alice"))
	assert.Equal(t, http.StatusConflict, post("/listings", "alice"))
	assert.Equal(t, http.StatusCreated, post("/listings", "bob"), "same header from another caller")
	assert.Equal(t, http.StatusCreated, post("/admin/warning", "alice"), "same header on another route")
	assert.Equal(t, http.StatusCreated, post("/listings", ""))
	assert.Equal(t, http.StatusConflict, post("/listings", ""), "anonymous callers are scoped by ip")
}

func TestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}
