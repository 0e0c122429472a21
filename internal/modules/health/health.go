package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/pkg/cron"
	"github.com/devicelink/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	db      *gorm.DB
	cache   Pinger
	sched   *cron.Scheduler
	started time.Time
}

// NewHandler builds the health handler. cache may be nil when redis is off.
func NewHandler(db *gorm.DB, cache Pinger, sched *cron.Scheduler) *Handler {
	return &Handler{db: db, cache: cache, sched: sched, started: time.Now()}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/ping", func(c *gin.Context) {
		response.OK(c, gin.H{"message": "pong"})
	})
	rg.GET("/health", h.health)

	jobs := rg.Group("/admin/jobs", authMW, middleware.RequireAdmin())
	jobs.GET("", func(c *gin.Context) {
		response.OK(c, h.sched.List())
	})
	jobs.POST("/:name/run", h.runJob)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	body := gin.H{"uptime": time.Since(h.started).Truncate(time.Second).String()}
	healthy := true

	sqlDB, err := h.db.DB()
	dbOK := err == nil && sqlDB.PingContext(ctx) == nil
	body["database"] = dbOK
	healthy = healthy && dbOK

	if h.cache != nil {
		cacheOK := h.cache.Ping(ctx) == nil
		body["redis"] = cacheOK
		healthy = healthy && cacheOK
	}

	if healthy {
		body["status"] = "ok"
		c.JSON(http.StatusOK, body)
		return
	}
	body["status"] = "degraded"
	c.JSON(http.StatusServiceUnavailable, body)
}

// POST /admin/jobs/:name/run
func (h *Handler) runJob(c *gin.Context) {
	name := c.Param("name")
	err := h.sched.Run(c.Request.Context(), name)
	switch {
	case errors.Is(err, cron.ErrJobNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, cron.ErrJobRunning):
		response.Conflict(c, err.Error())
	case err != nil:
		c.JSON(http.StatusOK, gin.H{"name": name, "status": cron.StatusFailed, "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"name": name, "status": cron.StatusOK})
	}
}
