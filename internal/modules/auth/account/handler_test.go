package account

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devicelink/core/internal/database/dbtest"
	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	"github.com/devicelink/core/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	db := dbtest.SQLite(t)
	svc := NewService(activity.NewService(db, nil, nil), nil, Options{TokenTTL: time.Hour, HashCost: bcrypt.MinCost})
	r := gin.New()
	noop := func(c *gin.Context) { c.Next() }
	NewHandler(svc).RegisterRoutes(r.Group(""), middleware.Auth(db), noop)
	return r, db
}

func call(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_RegisterValidation(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"ok", `{"username":"alice","password":"password1"}`, http.StatusOK, ""},
		{"duplicate", `{"username":"alice","password":"password1"}`, http.StatusBadRequest, "Username already taken"},
		{"short password", `{"username":"bob","password":"1234567"}`, http.StatusBadRequest, "password must be at least 8 characters"},
		{"bad username", `{"username":"b o b","password":"password1"}`, http.StatusBadRequest, ""},
		{"not json", `nope`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, http.MethodPost, "/register", tt.body, "")
			assert.Equal(t, tt.status, w.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, decode(t, w)["detail"])
			}
		})
	}
}

func TestHandler_LoginFlow(t *testing.T) {
	r, db := newRouter(t)
	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/register", `{"username":"alice","password":"password1"}`, "").Code)

	w := call(r, http.MethodPost, "/login", `{"username":"alice","password":"wrong-pass"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["detail"])

	w = call(r, http.MethodPost, "/login", `{"username":"alice","password":"password1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, false, body["is_admin"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	w = call(r, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])

	require.NoError(t, db.Create(&models.UserModel{Username: "root", Password: "x", IsAdmin: true}).Error)
	w = call(r, http.MethodGet, "/admin/check/root", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["is_admin"])
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/admin/check/ghost", "", token).Code)

	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/logout", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/me", "", token).Code)
}

func TestHandler_LoginSuspended(t *testing.T) {
	r, db := newRouter(t)
	require.Equal(t, http.StatusOK, call(r, http.MethodPost, "/register", `{"username":"bob","password":"password1"}`, "").Code)
	require.NoError(t, db.Model(&models.UserModel{}).Where("username = ?", "bob").Update("is_suspended", true).Error)

	w := call(r, http.MethodPost, "/login", `{"username":"bob","password":"password1"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
