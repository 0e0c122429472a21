package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelink/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mirror receives a copy of every committed entry.
type Mirror interface {
	Publish(entry models.ActivityLogModel)
}

// LogFunc records one entry inside the surrounding transaction.
type LogFunc func(action, username, details string) error

type Service struct {
	db     *gorm.DB
	mirror Mirror
	logger *zap.Logger
}

func NewService(db *gorm.DB, mirror Mirror, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, mirror: mirror, logger: logger.Named("ActivityService")}
}

// DB exposes the handle services share with the audit trail.
func (s *Service) DB() *gorm.DB { return s.db }

// Transaction runs fn in a database transaction. Entries logged through the
// LogFunc commit or roll back with the rest of fn's writes and are mirrored only
// after commit.
func (s *Service) Transaction(ctx context.Context, fn func(tx *gorm.DB, log LogFunc) error) error {
	var entries []models.ActivityLogModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, func(action, username, details string) error {
			entry := models.ActivityLogModel{Action: action, Username: username, Details: details}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("record %s: %w", action, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.publish(e)
	}
	return nil
}

// Record writes a standalone entry.
func (s *Service) Record(ctx context.Context, action, username, details string) error {
	return s.Transaction(ctx, func(_ *gorm.DB, log LogFunc) error {
		return log(action, username, details)
	})
}

func (s *Service) publish(e models.ActivityLogModel) {
	s.logger.Debug("activity", zap.String("action", e.Action), zap.String("username", e.Username))
	if s.mirror != nil {
		s.mirror.Publish(e)
	}
}

// List returns the newest entries first.
func (s *Service) List(ctx context.Context, limit int) ([]models.ActivityLogModel, error) {
	entries := []models.ActivityLogModel{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(NormalizeLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// Prune deletes entries created before cutoff.
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLogModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune activity: %w", res.Error)
	}
	return res.RowsAffected, nil
}
