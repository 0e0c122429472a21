package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	// AutoApprove publishes new listings immediately.
	AutoApprove bool
	// ReapproveOnEdit returns edited listings to PENDING.
	ReapproveOnEdit bool
}

type Service struct {
	db       *gorm.DB
	activity *activity.Service
	opts     Options
	logger   *zap.Logger
}

func NewService(activitySvc *activity.Service, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       activitySvc.DB(),
		activity: activitySvc,
		opts:     opts,
		logger:   logger.Named("ListingService"),
	}
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.ListingModel, error) {
	items := []models.ListingModel{}
	if err := f.Apply(s.db.WithContext(ctx)).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return items, nil
}

// Get returns a listing by id, including deleted ones.
func (s *Service) Get(ctx context.Context, id uint) (*models.ListingModel, error) {
	return s.find(s.db.WithContext(ctx), id)
}

func (s *Service) find(db *gorm.DB, id uint) (*models.ListingModel, error) {
	var l models.ListingModel
	if err := db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// CanView reports whether caller (nil for anonymous) may read l.
func CanView(caller *models.UserModel, l *models.ListingModel) bool {
	if l.Public() {
		return true
	}
	if caller == nil {
		return false
	}
	if caller.IsAdmin {
		return true
	}
	return caller.Username == l.Owner && l.Status != models.ListingDeleted
}

func (s *Service) Create(ctx context.Context, owner string, dto *ListingDTO) (*models.ListingModel, error) {
	l := models.ListingModel{
		Owner:       owner,
		Title:       dto.Title,
		Description: dto.Description,
		Category:    dto.Category,
		Condition:   dto.Condition,
		Quantity:    dto.Quantity,
		Status:      models.ListingActive,
		Moderation:  models.ModerationPending,
	}
	if s.opts.AutoApprove {
		l.Moderation = models.ModerationApproved
	}

	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		if err := tx.Create(&l).Error; err != nil {
			return err
		}
		return log(activity.ActionListingCreated, owner, "Created listing: "+l.Title)
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return &l, nil
}

// Update replaces the editable fields of a listing owned by caller.
func (s *Service) Update(ctx context.Context, caller *models.UserModel, id uint, dto *UpdateListingDTO) (*models.ListingModel, error) {
	var out *models.ListingModel
	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		l, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if l.Status == models.ListingDeleted {
			return errListingNotFound
		}
		if l.Owner != caller.Username {
			return errNotOwner
		}

		contentChanged := l.Title != dto.Title ||
			l.Description != dto.Description ||
			l.Category != dto.Category ||
			l.Condition != dto.Condition

		updates := map[string]interface{}{
			"title":            dto.Title,
			"description":      dto.Description,
			"category":         dto.Category,
			"device_condition": dto.Condition,
			"quantity":         dto.Quantity,
			"status":           dto.Status,
			"search_text":      models.FoldSearch(dto.Title, dto.Description),
		}
		if contentChanged && s.opts.ReapproveOnEdit && !caller.IsAdmin && !s.opts.AutoApprove {
			updates["moderation"] = models.ModerationPending
		}
		if err := tx.Model(l).Updates(updates).Error; err != nil {
			return err
		}

		details := fmt.Sprintf("Updated listing %d: %s (%s)", l.ID, dto.Title, dto.Status)
		if err := log(activity.ActionListingUpdated, l.Owner, details); err != nil {
			return err
		}
		out, err = s.find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete marks a listing DELETED. Owners and admins may delete.
func (s *Service) Delete(ctx context.Context, caller *models.UserModel, id uint) error {
	return s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		l, err := s.find(tx, id)
		if err != nil {
			return err
		}
		if l.Status == models.ListingDeleted {
			return errListingNotFound
		}
		if l.Owner != caller.Username && !caller.IsAdmin {
			return errNotOwner
		}
		if err := tx.Model(l).Update("status", models.ListingDeleted).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("Deleted listing %d: %s", l.ID, l.Title)
		if caller.Username != l.Owner {
			details += " by " + caller.Username
		}
		return log(activity.ActionListingDeleted, l.Owner, details)
	})
}
