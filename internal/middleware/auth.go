package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/pkg/jwt"
	"github.com/devicelink/core/internal/pkg/response"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextKeyUser   = "user"
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"
)

var (
	ErrTokenRequired  = errors.New("token is required")
	ErrSessionRevoked = errors.New("session expired or revoked")
)

// Auth rejects requests without a valid bearer token bound to a live session.
// Suspended users may still read but every mutating request gets 403.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := Authenticate(db, extractToken(c))
		if err != nil {
			response.UnauthorizedMsg(c, "Not authenticated")
			return
		}
		if user.IsSuspended && c.Request.Method != http.MethodGet {
			response.ForbiddenMsg(c, "Your account is suspended")
			return
		}
		setIdentity(c, user, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present but never blocks.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, claims, err := Authenticate(db, extractToken(c)); err == nil {
			setIdentity(c, user, claims)
		}
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Unauthorized(c)
			return
		}
		if !user.IsAdmin {
			response.ForbiddenMsg(c, "Admin access required")
			return
		}
		c.Next()
	}
}

// LegacyIdentity accepts the old username/admin_username query parameters but
// only as an assertion: if present they must name the authenticated caller.
func LegacyIdentity(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		for _, p := range params {
			v := strings.TrimSpace(c.Query(p))
			if v == "" {
				continue
			}
			if user == nil || v != user.Username {
				response.ForbiddenMsg(c, p+" does not match the authenticated user")
				return
			}
		}
		c.Next()
	}
}

// Authenticate resolves a raw bearer token to its user.
func Authenticate(db *gorm.DB, rawToken string) (*models.UserModel, *jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, nil, ErrTokenRequired
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, ErrSessionRevoked
	}

	var user models.UserModel
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, claims, nil
}

func setIdentity(c *gin.Context, user *models.UserModel, claims *jwt.Claims) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeySID, claims.SessionID)
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.UserModel {
	v, _ := c.Get(ContextKeyUser)
	u, _ := v.(*models.UserModel)
	return u
}

// CurrentUserID returns the authenticated user id or 0.
func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(uint)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != 0
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
