package account

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminCacheTTL = time.Minute

// Cache is the part of the redis client used to memoize admin checks.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Options struct {
	TokenTTL time.Duration
	HashCost int
	Cache    Cache
}

type Service struct {
	db       *gorm.DB
	activity *activity.Service
	cache    Cache
	tokenTTL time.Duration
	hashCost int
	logger   *zap.Logger
}

func NewService(activitySvc *activity.Service, logger *zap.Logger, opts Options) *Service {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       activitySvc.DB(),
		activity: activitySvc,
		cache:    opts.Cache,
		tokenTTL: opts.TokenTTL,
		hashCost: opts.HashCost,
		logger:   logger.Named("AccountService"),
	}
}

// longEnough counts characters, not bytes, like the binding rule and the client.
func longEnough(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, error) {
	if !longEnough(dto.Password) {
		return nil, errPasswordTooShort
	}
	hash, err := HashPassword(dto.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{Username: dto.Username, Password: hash}
	err = s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		var count int64
		if err := tx.Model(&models.UserModel{}).Where("username = ?", dto.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errUsernameTaken
		}
		if err := tx.Create(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errUsernameTaken
			}
			return err
		}
		return log(activity.ActionUserRegistered, u.Username, "Account created")
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", u.Username))
	return &u, nil
}

func (s *Service) Login(ctx context.Context, dto *LoginDTO, ip, ua string) (*LoginResult, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("username = ?", dto.Username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if u.IsSuspended {
		return nil, errSuspended
	}

	token, _, err := sessionpkg.Issue(s.db.WithContext(ctx), u.ID, ip, ua, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	if err := s.activity.Record(ctx, activity.ActionUserLogin, u.Username, "Signed in from "+ip); err != nil {
		s.logger.Warn("record login", zap.Error(err))
	}

	return &LoginResult{
		Message:  "Login successful",
		Token:    token,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}, nil
}

func (s *Service) Logout(ctx context.Context, userID uint, sessionID string) error {
	err := sessionpkg.Revoke(s.db.WithContext(ctx), userID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// IsAdmin reports the admin flag of username, consulting the cache first.
func (s *Service) IsAdmin(ctx context.Context, username string) (bool, error) {
	key := "admin_check:" + username
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, key); err == nil && v != "" {
			return v == "1", nil
		}
	}

	var u models.UserModel
	if err := s.db.WithContext(ctx).Select("id", "is_admin").Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, errUserNotFound
		}
		return false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, boolFlag(u.IsAdmin), adminCacheTTL); err != nil {
			s.logger.Debug("cache admin check", zap.Error(err))
		}
	}
	return u.IsAdmin, nil
}

// EnsureAdmin grants admin rights to username, creating the account with
// password when it does not exist yet. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	created := false
	err := s.activity.Transaction(ctx, func(tx *gorm.DB, log activity.LogFunc) error {
		var u models.UserModel
		err := tx.Where("username = ?", username).First(&u).Error
		switch {
		case err == nil:
			if err := tx.Model(&u).Update("is_admin", true).Error; err != nil {
				return err
			}
			return log(activity.ActionAdminGranted, u.Username, "Promoted to admin")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if !longEnough(password) {
			return ErrPasswordRequired
		}
		hash, err := HashPassword(password, s.hashCost)
		if err != nil {
			return err
		}
		u = models.UserModel{Username: username, Password: hash, IsAdmin: true}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		created = true
		return log(activity.ActionAdminGranted, u.Username, "Admin account created")
	})
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, "admin_check:"+username, "1", adminCacheTTL)
	}
	s.logger.Info("admin ensured", zap.String("username", username), zap.Bool("created", created))
	return created, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
