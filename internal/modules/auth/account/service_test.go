package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devicelink/core/internal/database/dbtest"
	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	"github.com/devicelink/core/internal/pkg/jwt"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func newService(t *testing.T, cache Cache) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.SQLite(t)
	svc := NewService(activity.NewService(db, nil, nil), nil, Options{
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
		Cache:    cache,
	})
	return svc, db
}

func TestService_Register(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, &RegisterDTO{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "password1", u.Password)
	assert.False(t, u.IsAdmin)

	_, err = svc.Register(ctx, &RegisterDTO{Username: "alice", Password: "password2"})
	assert.ErrorIs(t, err, errUsernameTaken)

	_, err = svc.Register(ctx, &RegisterDTO{Username: "bob", Password: "short"})
	assert.ErrorIs(t, err, errPasswordTooShort)

	// Seven characters but fourteen bytes.
	_, err = svc.Register(ctx, &RegisterDTO{Username: "bob", Password: "ééééééé"})
	assert.ErrorIs(t, err, errPasswordTooShort)

	var logs []models.ActivityLogModel
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, activity.ActionUserRegistered, logs[0].Action)
}

func TestService_Login(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, &RegisterDTO{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterDTO{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.UserModel{}).Where("username = ?", "bob").Update("is_suspended", true).Error)

	tests := []struct {
		name     string
		dto      LoginDTO
		wantErr  error
		username string
	}{
		{"ok", LoginDTO{"alice", "password1"}, nil, "alice"},
		{"wrong password", LoginDTO{"alice", "password2"}, errInvalidCredentials, ""},
		{"unknown user", LoginDTO{"carol", "password1"}, errInvalidCredentials, ""},
		{"suspended", LoginDTO{"bob", "password1"}, errSuspended, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(ctx, &tt.dto, "127.0.0.1", "test")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, res.Username)
			claims, err := jwt.Parse(res.Token)
			require.NoError(t, err)
			active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
			require.NoError(t, err)
			assert.True(t, active)
		})
	}
}

func TestService_Logout(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, &RegisterDTO{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, &LoginDTO{"alice", "password1"}, "", "")
	require.NoError(t, err)
	claims, err := jwt.Parse(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.UserID, claims.SessionID))
	require.NoError(t, svc.Logout(ctx, claims.UserID, claims.SessionID), "second logout is a no-op")

	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestService_IsAdmin(t *testing.T) {
	cache := &mockCache{}
	svc, db := newService(t, cache)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.UserModel{Username: "root", Password: "x", IsAdmin: true}).Error)

	cache.On("Get", ctx, "admin_check:root").Return("", nil).Once()
	cache.On("Set", ctx, "admin_check:root", "1", adminCacheTTL).Return(nil).Once()
	isAdmin, err := svc.IsAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	cache.On("Get", ctx, "admin_check:root").Return("1", nil).Once()
	isAdmin, err = svc.IsAdmin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	cache.On("Get", ctx, "admin_check:ghost").Return("", errors.New("redis down")).Once()
	_, err = svc.IsAdmin(ctx, "ghost")
	assert.ErrorIs(t, err, errUserNotFound)

	cache.AssertExpectations(t)
}

func TestService_RegisterConcurrentDuplicates(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, &RegisterDTO{Username: "dup", Password: "password1"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, errUsernameTaken)
	}
	assert.Equal(t, 1, ok)
}

func TestService_LoginDatabaseError(t *testing.T) {
	db, mock := dbtest.Mock(t)
	mock.ExpectQuery("SELECT \\* FROM `users`").WillReturnError(errors.New("db down"))

	svc := NewService(activity.NewService(db, nil, nil), nil, Options{HashCost: bcrypt.MinCost})
	_, err := svc.Login(context.Background(), &LoginDTO{"alice", "password1"}, "", "")
	assert.EqualError(t, err, "db down")
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	_, err := svc.EnsureAdmin(ctx, "root", "short")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	created, err := svc.EnsureAdmin(ctx, "root", "password1")
	require.NoError(t, err)
	assert.True(t, created)

	_, err = svc.Register(ctx, &RegisterDTO{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	created, err = svc.EnsureAdmin(ctx, "alice", "")
	require.NoError(t, err)
	assert.False(t, created)

	var admins int64
	require.NoError(t, db.Model(&models.UserModel{}).Where("is_admin = ?", true).Count(&admins).Error)
	assert.EqualValues(t, 2, admins)

	res, err := svc.Login(ctx, &LoginDTO{Username: "root", Password: "password1"}, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	var granted int64
	require.NoError(t, db.Model(&models.ActivityLogModel{}).Where("action = ?", activity.ActionAdminGranted).Count(&granted).Error)
	assert.EqualValues(t, 2, granted)
}
