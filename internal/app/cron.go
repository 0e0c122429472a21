package app

import (
	"context"
	"time"

	"github.com/devicelink/core/internal/config"
	pkgcron "github.com/devicelink/core/internal/pkg/cron"
	"github.com/devicelink/core/internal/pkg/session"
	"go.uber.org/zap"
)

const sessionCleanupInterval = 6 * time.Hour

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, svc *services, cfg *config.AppConfig, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")
	db := svc.activity.DB()

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "Delete expired and revoked sessions",
		Interval:    sessionCleanupInterval,
		Fn: func(ctx context.Context) error {
			n, err := session.Cleanup(db.WithContext(ctx), time.Now())
			if err != nil {
				return err
			}
			cronLogger.Info("sessions cleaned up", zap.Int64("deleted", n))
			return nil
		},
	})

	retention := cfg.Activity.RetentionDays
	pruneInterval := 24 * time.Hour
	if retention <= 0 {
		// Still listed and runnable by hand, but never scheduled.
		pruneInterval = 0
	}
	sched.Register(pkgcron.Job{
		Name:        "prune_activity_logs",
		Description: "Delete activity log entries past the retention window",
		Interval:    pruneInterval,
		Fn: func(ctx context.Context) error {
			if retention <= 0 {
				return nil
			}
			cutoff := time.Now().AddDate(0, 0, -retention)
			n, err := svc.activity.Prune(ctx, cutoff)
			if err != nil {
				return err
			}
			cronLogger.Info("activity logs pruned", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
			return nil
		},
	})

	backupInterval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
	if !cfg.Backup.Enable {
		backupInterval = 0
	}
	sched.Register(pkgcron.Job{
		Name:        "auto_backup",
		Description: "Back up every table to the backup directory and S3",
		Interval:    backupInterval,
		Fn: func(ctx context.Context) error {
			artifact, err := svc.backup.Create(ctx)
			if err != nil {
				return err
			}
			cronLogger.Info("backup finished", zap.String("file", artifact.Filename), zap.String("object_key", artifact.ObjectKey))
			return nil
		},
	})
}
