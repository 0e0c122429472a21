package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devicelink/core/internal/config"
	"github.com/devicelink/core/internal/database"
	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/modules/activity"
	"github.com/devicelink/core/internal/modules/backup"
	pkgcron "github.com/devicelink/core/internal/pkg/cron"
	pkgredis "github.com/devicelink/core/internal/pkg/redis"
	"github.com/devicelink/core/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	mirror *activity.MongoMirror
	sched  *pkgcron.Scheduler
	logger *zap.Logger
	cancel context.CancelFunc
}

// New initializes the application: settings, database, optional redis and
// mongo mirror, routes and background jobs.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}
	validation.Register()

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &App{cfg: cfg, db: db, logger: logger}

	if cfg.Redis.Enable {
		rc, err := pkgredis.Connect(cfg.Redis.URLValue(), cfg.Redis.Prefix)
		if err != nil {
			a.close(context.Background())
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.rc = rc
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if cfg.Activity.Mirror.Enable {
		mirror, err := activity.NewMongoMirror(ctx, cfg.Activity.Mirror, logger)
		if err != nil {
			cancel()
			a.close(context.Background())
			return nil, fmt.Errorf("activity mirror: %w", err)
		}
		a.mirror = mirror
	}

	var uploader backup.Uploader
	if cfg.Backup.Enable {
		up, err := backup.NewS3Uploader(cfg.Backup.S3)
		if err != nil {
			cancel()
			a.close(context.Background())
			return nil, fmt.Errorf("backup uploader: %w", err)
		}
		if up != nil {
			uploader = up
		}
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(newCORS(cfg))
	a.router = router

	a.sched = pkgcron.New(logger)
	svc := a.buildServices(uploader)
	a.registerRoutes(svc)
	registerCronJobs(a.sched, svc, cfg, logger)
	go a.sched.Start(ctx)

	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and releases connections.
func (a *App) Shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	if a.mirror != nil {
		if err := a.mirror.Close(ctx); err != nil {
			a.logger.Warn("close activity mirror", zap.Error(err))
		}
	}
	if a.rc != nil {
		_ = a.rc.Close()
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}
