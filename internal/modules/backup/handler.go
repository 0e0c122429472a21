package backup

import (
	"errors"

	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/backups", authMW, middleware.RequireAdmin())
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:filename", h.download)
	g.POST("/:filename/restore", h.restore)
}

// GET /admin/backups
func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

// POST /admin/backups
func (h *Handler) create(c *gin.Context) {
	artifact, err := h.svc.Create(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, artifact)
}

// GET /admin/backups/:filename
func (h *Handler) download(c *gin.Context) {
	filename := c.Param("filename")
	p, err := h.svc.Open(filename)
	if err != nil {
		response.NotFoundMsg(c, "Backup not found")
		return
	}
	c.FileAttachment(p, filename)
}

// POST /admin/backups/:filename/restore
func (h *Handler) restore(c *gin.Context) {
	err := h.svc.Restore(c.Request.Context(), c.Param("filename"))
	switch {
	case err == nil:
		response.Message(c, "Backup restored")
	case errors.Is(err, errNotFound):
		response.NotFoundMsg(c, "Backup not found")
	case errors.Is(err, errInvalidArchive), errors.Is(err, errUnknownFormat):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
