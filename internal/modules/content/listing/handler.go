package listing

import (
	"errors"
	"strconv"

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW, idempotenceMW gin.HandlerFunc) {
	g := rg.Group("/listings")
	g.GET("", optionalAuthMW, h.list)
	g.GET("/:id", optionalAuthMW, h.get)
	g.POST("", authMW, idempotenceMW, h.create)
	g.PUT("/:id", authMW, middleware.LegacyIdentity("username"), h.update)
	g.DELETE("/:id", authMW, middleware.LegacyIdentity("username"), h.delete)
}

func (h *Handler) list(c *gin.Context) {
	f, err := ParseFilter(c.Request.URL.Query())
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	caller := middleware.CurrentUser(c)
	if f.OwnUsername != "" {
		if caller == nil {
			response.Unauthorized(c)
			return
		}
		if caller.Username != f.OwnUsername && !caller.IsAdmin {
			response.ForbiddenMsg(c, "You can only list your own listings")
			return
		}
	} else if caller == nil || !caller.IsAdmin {
		f.PublicOnly = true
	}

	items, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, ToResponses(items))
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	l, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !CanView(middleware.CurrentUser(c), l) {
		response.NotFoundMsg(c, "Listing not found")
		return
	}
	response.OK(c, ToResponse(l))
}

func (h *Handler) create(c *gin.Context) {
	var dto ListingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	caller := middleware.CurrentUser(c)
	if dto.Owner != "" && dto.Owner != caller.Username {
		response.ForbiddenMsg(c, "owner does not match the authenticated user")
		return
	}
	l, err := h.svc.Create(c.Request.Context(), caller.Username, &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, ToResponse(l))
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var dto UpdateListingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, validation.Message(err))
		return
	}
	l, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), id, &dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, ToResponse(l))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, "Listing deleted")
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errListingNotFound):
		response.NotFoundMsg(c, "Listing not found")
	case errors.Is(err, errNotOwner):
		response.ForbiddenMsg(c, "You can only modify your own listings")
	default:
		response.InternalError(c, err)
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "Invalid listing id")
		return 0, false
	}
	return uint(id), true
}
