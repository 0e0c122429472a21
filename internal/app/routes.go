package app

import (
	"time"

	"github.com/devicelink/core/internal/middleware"
	"github.com/devicelink/core/internal/modules/activity"
	"github.com/devicelink/core/internal/modules/auth/account"
	"github.com/devicelink/core/internal/modules/backup"
	"github.com/devicelink/core/internal/modules/content/listing"
	"github.com/devicelink/core/internal/modules/health"
	"github.com/devicelink/core/internal/modules/moderation"
	"github.com/devicelink/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type services struct {
	activity   *activity.Service
	account    *account.Service
	listing    *listing.Service
	moderation *moderation.Service
	backup     *backup.Service
}

func (a *App) buildServices(uploader backup.Uploader) *services {
	var mirror activity.Mirror
	if a.mirror != nil {
		mirror = a.mirror
	}
	activitySvc := activity.NewService(a.db, mirror, a.logger)

	accountOpts := account.Options{TokenTTL: a.cfg.TokenTTL()}
	if a.rc != nil {
		accountOpts.Cache = a.rc
	}
	return &services{
		activity: activitySvc,
		account:  account.NewService(activitySvc, a.logger, accountOpts),
		listing: listing.NewService(activitySvc, a.logger, listing.Options{
			AutoApprove:     a.cfg.Moderation.AutoApprove,
			ReapproveOnEdit: a.cfg.Moderation.ReapproveOnEdit,
		}),
		moderation: moderation.NewService(activitySvc, a.logger),
		backup:     backup.NewService(a.db, a.cfg.Backup, uploader, a.logger),
	}
}

func (a *App) registerRoutes(svc *services) {
	authMW := middleware.Auth(a.db)
	optionalAuthMW := middleware.OptionalAuth(a.db)

	// Rate limiting and idempotence need a shared store; without redis they
	// pass every request through.
	var counter middleware.Counter
	var keys middleware.KeyStore
	if a.rc != nil {
		keys = a.rc
		if a.cfg.RateLimit.Enable {
			counter = a.rc
		}
	}
	authLimit := middleware.RateLimit(counter, a.cfg.RateLimit.AuthPerMinute, time.Minute)
	idempotenceMW := middleware.Idempotence(keys)

	root := a.router.Group("")
	health.NewHandler(a.db, a.pinger(), a.sched).RegisterRoutes(root, authMW)
	account.NewHandler(svc.account).RegisterRoutes(root, authMW, authLimit)
	listing.NewHandler(svc.listing).RegisterRoutes(root, authMW, optionalAuthMW, idempotenceMW)
	moderation.NewHandler(svc.moderation).RegisterRoutes(root, authMW)
	backup.NewHandler(svc.backup).RegisterRoutes(root, authMW)

	a.router.NoRoute(func(c *gin.Context) {
		response.NotFoundMsg(c, "Not found")
	})
	a.router.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})
}

func (a *App) pinger() health.Pinger {
	if a.rc == nil {
		return nil
	}
	return a.rc
}
