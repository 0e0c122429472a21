package moderation

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
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"github.com/devicelink/core/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, map[string]string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	db := dbtest.SQLite(t)
	r := gin.New()
	NewHandler(NewService(activity.NewService(db, nil, nil), nil)).RegisterRoutes(r.Group(""), middleware.Auth(db))
	r.GET("/whoami", middleware.Auth(db), func(c *gin.Context) { c.Status(http.StatusOK) })

	tokens := map[string]string{}
	for _, u := range []models.UserModel{{Username: "root", IsAdmin: true}, {Username: "alice"}} {
		u.Password = "x"
		require.NoError(t, db.Create(&u).Error)
		token, _, err := sessionpkg.Issue(db, u.ID, "", "", time.Hour)
		require.NoError(t, err)
		tokens[u.Username] = token
	}
	require.NoError(t, db.Create(&models.ListingModel{Owner: "alice", Title: "Pixel", Category: models.CategoryPhone, Condition: models.ConditionGood, Quantity: 1, Status: models.ListingActive, Moderation: models.ModerationPending}).Error)
	return r, tokens
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

func TestHandler_RequiresAdmin(t *testing.T) {
	r, tokens := newRouter(t)
	for _, path := range []string{"/admin/users", "/admin/listings", "/admin/activity-logs", "/admin/warnings/alice"} {
		assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, path, "", "").Code, path)
		assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, path, "", tokens["alice"]).Code, path)
		assert.Equal(t, http.StatusOK, call(r, http.MethodGet, path, "", tokens["root"]).Code, path)
	}
	w := call(r, http.MethodPost, "/admin/warning", `{"username":"root","reason":"x"}`, tokens["alice"])
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_LegacyAdminUsername(t *testing.T) {
	r, tokens := newRouter(t)
	body := `{"username":"alice","reason":"spam"}`
	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/admin/warning?admin_username=mallory", body, tokens["root"]).Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodPost, "/admin/warning?admin_username=root", body, tokens["root"]).Code)
}

func TestHandler_WarningAndActivity(t *testing.T) {
	r, tokens := newRouter(t)
	w := call(r, http.MethodPost, "/admin/warning", `{"username":"alice","reason":"spam"}`, tokens["root"])
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Warning issued to alice")

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/admin/warning", `{"username":"ghost","reason":"x"}`, tokens["root"]).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/admin/warning", `{"username":"alice"}`, tokens["root"]).Code)

	w = call(r, http.MethodGet, "/admin/users", "", tokens["root"])
	var users []userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, 1, users[1].WarningCount)

	w = call(r, http.MethodGet, "/admin/activity-logs?limit=1", "", tokens["root"])
	var logs []models.ActivityLogModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, activity.ActionWarningIssued, logs[0].Action)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodGet, "/admin/activity-logs?limit=abc", "", tokens["root"]).Code)
}

func TestHandler_SuspendAndApprove(t *testing.T) {
	r, tokens := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/admin/suspend", `{"username":"root","is_suspended":true}`, tokens["root"]).Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/admin/suspend", `{"username":"alice"}`, tokens["root"]).Code)

	w := call(r, http.MethodPost, "/admin/suspend", `{"username":"alice","is_suspended":true}`, tokens["root"])
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User suspended")
	assert.Equal(t, http.StatusUnauthorized, call(r, http.MethodGet, "/whoami", "", tokens["alice"]).Code)

	w = call(r, http.MethodPost, "/admin/approve-listing", `{"listing_id":1,"approved":true}`, tokens["root"])
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Message string `json:"message"`
		Listing struct {
			Approved   bool   `json:"approved"`
			Moderation string `json:"moderation"`
		} `json:"listing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Listing approved", body.Message)
	assert.True(t, body.Listing.Approved)
	assert.Equal(t, "APPROVED", body.Listing.Moderation)

	assert.Equal(t, http.StatusNotFound, call(r, http.MethodPost, "/admin/approve-listing", `{"listing_id":9,"approved":false}`, tokens["root"]).Code)
}
