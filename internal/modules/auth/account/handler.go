package account

import (
	"errors"

	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/pkg/response"
	"github.com/devicelink/core/internal/pkg/validation"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the account endpoints. authLimit throttles the
// unauthenticated credential endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, authLimit gin.HandlerFunc) {
	rg.POST("/register", authLimit, h.register)
	rg.POST("/login", authLimit, h.login)

	a := rg.Group("", authMW)
	a.POST("/logout", h.logout)
	a.GET("/me", h.me)
	a.GET("/admin/check/:username", h.checkAdmin)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	u, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errUsernameTaken):
			response.BadRequest(c, "Username already taken")
		case errors.Is(err, errPasswordTooShort):
			response.BadRequest(c, "Password must be at least 8 characters")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"message": "User created", "username": u.Username})
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	result, err := h.svc.Login(c.Request.Context(), &dto, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, errInvalidCredentials):
			response.BadRequest(c, "Invalid credentials")
		case errors.Is(err, errSuspended):
			response.ForbiddenMsg(c, "Your account is suspended")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, result)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Message(c, "Logged out")
}

func (h *Handler) me(c *gin.Context) {
	response.OK(c, toUserResponse(middleware.CurrentUser(c)))
}

func (h *Handler) checkAdmin(c *gin.Context) {
	isAdmin, err := h.svc.IsAdmin(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFoundMsg(c, "User not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"is_admin": isAdmin})
}
