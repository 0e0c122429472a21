package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements the admin console: account and listing snapshots,
// warnings, suspensions and listing approval.
type Service struct {
	db       *gorm.DB
	activity *activity.Service
	logger   *zap.Logger
}

func NewService(activitySvc *activity.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: activitySvc.DB(), activity: activitySvc, logger: logger.Named("ModerationService")}
}

func (s *Service) Users(ctx context.Context) ([]models.UserModel, error) {
	users := []models.UserModel{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Listings returns every listing, deleted ones included, newest first.
func (s *Service) Listings(ctx context.Context) ([]models.ListingModel, error) {
	items := []models.ListingModel{}
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return items, nil
}

func (s *Service) Warnings(ctx context.Context, username string) ([]models.WarningModel, error) {
	warnings := []models.WarningModel{}
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC, id DESC").
		Find(&warnings).Error
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return warnings, nil
}

func (s *Service) ActivityLogs(ctx context.Context, limit int) ([]models.ActivityLogModel, error) {
	return s.activity.List(ctx, limit)
}

func findUser(tx *gorm.DB, username string) (*models.UserModel, error) {
	var u models.UserModel
	if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// IssueWarning records a warning and bumps the user's warning count by one.
func (s *Service) IssueWarning(ctx context.Context, admin *models.UserModel, dto *WarningDTO) (*models.WarningModel, error) {
	w := models.WarningModel{Username: dto.Username, Reason: dto.Reason, IssuedBy: admin.Username}
	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		u, err := findUser(tx, dto.Username)
		if err != nil {
			return err
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		if err := tx.Model(u).UpdateColumn("warning_count", gorm.Expr("warning_count + ?", 1)).Error; err != nil {
			return err
		}
		return log(activity.ActionWarningIssued, u.Username, "Warning issued: "+dto.Reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("warning issued", zap.String("username", dto.Username), zap.String("by", admin.Username))
	return &w, nil
}

// SetSuspended suspends or reinstates a user. Suspension ends every session of the user.
func (s *Service) SetSuspended(ctx context.Context, admin *models.UserModel, username string, suspended bool) error {
	if suspended && admin.Username == username {
		return errSelfSuspend
	}
	state := "unsuspended"
	action := activity.ActionUserUnsuspended
	if suspended {
		state = "suspended"
		action = activity.ActionUserSuspended
	}

	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		u, err := findUser(tx, username)
		if err != nil {
			return err
		}
		if err := tx.Model(u).Update("is_suspended", suspended).Error; err != nil {
			return err
		}
		if suspended {
			if err := sessionpkg.RevokeAll(tx, u.ID); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		return log(action, u.Username, fmt.Sprintf("User %s by %s", state, admin.Username))
	})
	if err != nil {
		return err
	}
	s.logger.Info("user "+state, zap.String("username", username), zap.String("by", admin.Username))
	return nil
}

// SetApproval records the admin decision on a listing.
func (s *Service) SetApproval(ctx context.Context, admin *models.UserModel, listingID uint, approved bool) (*models.ListingModel, error) {
	state := models.ModerationRejected
	action := activity.ActionListingRejected
	word := "rejected"
	if approved {
		state = models.ModerationApproved
		action = activity.ActionListingApproved
		word = "approved"
	}

	var l models.ListingModel
	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		if err := tx.First(&l, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errListingNotFound
			}
			return err
		}
		if err := tx.Model(&l).Update("moderation", state).Error; err != nil {
			return err
		}
		l.Moderation = state
		return log(action, l.Owner, fmt.Sprintf("Listing '%s' was %s by %s", l.Title, word, admin.Username))
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}
