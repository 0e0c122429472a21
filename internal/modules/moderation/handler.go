package moderation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/modules/content/listing"
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

// RegisterRoutes mounts the admin console. Every route requires an admin caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin", authMW, middleware.RequireAdmin(), middleware.LegacyIdentity("admin_username"))
	g.GET("/users", h.users)
	g.GET("/listings", h.listings)
	g.GET("/activity-logs", h.activityLogs)
	g.GET("/warnings/:username", h.warnings)
	g.POST("/warning", h.issueWarning)
	g.POST("/suspend", h.suspend)
	g.POST("/approve-listing", h.approveListing)
}

func (h *Handler) users(c *gin.Context) {
	users, err := h.svc.Users(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toUserResponses(users))
}

func (h *Handler) listings(c *gin.Context) {
	items, err := h.svc.Listings(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, listing.ToResponses(items))
}

func (h *Handler) activityLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.svc.ActivityLogs(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) warnings(c *gin.Context) {
	warnings, err := h.svc.Warnings(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, warnings)
}

func (h *Handler) issueWarning(c *gin.Context) {
	var dto WarningDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	if _, err := h.svc.IssueWarning(c.Request.Context(), middleware.CurrentUser(c), &dto); err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, "Warning issued to "+dto.Username)
}

func (h *Handler) suspend(c *gin.Context) {
	var dto SuspendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	if err := h.svc.SetSuspended(c.Request.Context(), middleware.CurrentUser(c), dto.Username, *dto.IsSuspended); err != nil {
		h.fail(c, err)
		return
	}
	state := "unsuspended"
	if *dto.IsSuspended {
		state = "suspended"
	}
	response.Message(c, "User "+state)
}

func (h *Handler) approveListing(c *gin.Context) {
	var dto ApprovalDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	l, err := h.svc.SetApproval(c.Request.Context(), middleware.CurrentUser(c), dto.ListingID, *dto.Approved)
	if err != nil {
		h.fail(c, err)
		return
	}
	state := "rejected"
	if *dto.Approved {
		state = "approved"
	}
	response.OK(c, gin.H{"message": fmt.Sprintf("Listing %s", state), "listing": listing.ToResponse(l)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound):
		response.NotFoundMsg(c, "User not found")
	case errors.Is(err, errListingNotFound):
		response.NotFoundMsg(c, "Listing not found")
	case errors.Is(err, errSelfSuspend):
		response.BadRequest(c, "You cannot suspend yourself")
	default:
		response.InternalError(c, err)
	}
}
