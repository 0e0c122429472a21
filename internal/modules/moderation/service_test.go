package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devicelink/core/internal/database/dbtest"
	"github.com/devicelink/core/internal/models"
	"github.com/devicelink/core/internal/modules/activity"
	sessionpkg "github.com/devicelink/core/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *gorm.DB, *models.UserModel) {
	t.Helper()
	db := dbtest.SQLite(t)
	root := &models.UserModel{Username: "root", Password: "x", IsAdmin: true}
	require.NoError(t, db.Create(root).Error)
	require.NoError(t, db.Create(&models.UserModel{Username: "alice", Password: "x"}).Error)
	return NewService(activity.NewService(db, nil, nil), nil), db, root
}

func lastActivity(t *testing.T, db *gorm.DB) models.ActivityLogModel {
	t.Helper()
	var e models.ActivityLogModel
	require.NoError(t, db.Order("id DESC").First(&e).Error)
	return e
}

func TestService_IssueWarning(t *testing.T) {
	svc, db, root := newService(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		_, err := svc.IssueWarning(ctx, root, &WarningDTO{Username: "alice", Reason: "spam"})
		require.NoError(t, err)

		var u models.UserModel
		require.NoError(t, db.Where("username = ?", "alice").First(&u).Error)
		assert.Equal(t, i, u.WarningCount, "each warning adds exactly one")
	}

	warnings, err := svc.Warnings(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Equal(t, "root", warnings[0].IssuedBy)
	assert.Greater(t, warnings[0].ID, warnings[1].ID)

	e := lastActivity(t, db)
	assert.Equal(t, activity.ActionWarningIssued, e.Action)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, "Warning issued: spam", e.Details)

	_, err = svc.IssueWarning(ctx, root, &WarningDTO{Username: "ghost", Reason: "x"})
	assert.ErrorIs(t, err, errUserNotFound)

	empty, err := svc.Warnings(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestService_SetSuspended(t *testing.T) {
	svc, db, root := newService(t)
	ctx := context.Background()

	var alice models.UserModel
	require.NoError(t, db.Where("username = ?", "alice").First(&alice).Error)
	_, sess, err := sessionpkg.Issue(db, alice.ID, "", "", time.Hour)
	require.NoError(t, err)

	require.NoError(t, svc.SetSuspended(ctx, root, "alice", true))
	require.NoError(t, db.First(&alice, alice.ID).Error)
	assert.True(t, alice.IsSuspended)
	active, err := sessionpkg.IsActive(db, alice.ID, sess.ID)
	require.NoError(t, err)
	assert.False(t, active, "suspension revokes sessions")
	assert.Equal(t, activity.ActionUserSuspended, lastActivity(t, db).Action)

	require.NoError(t, svc.SetSuspended(ctx, root, "alice", false))
	require.NoError(t, db.First(&alice, alice.ID).Error)
	assert.False(t, alice.IsSuspended)
	e := lastActivity(t, db)
	assert.Equal(t, activity.ActionUserUnsuspended, e.Action)
	assert.Equal(t, "User unsuspended by root", e.Details)

	assert.ErrorIs(t, svc.SetSuspended(ctx, root, "root", true), errSelfSuspend)
	assert.ErrorIs(t, svc.SetSuspended(ctx, root, "ghost", true), errUserNotFound)
}

func TestService_SetApproval(t *testing.T) {
	svc, db, root := newService(t)
	ctx := context.Background()
	l := models.ListingModel{Owner: "alice", Title: "Pixel", Category: models.CategoryPhone, Condition: models.ConditionGood, Quantity: 1, Status: models.ListingActive, Moderation: models.ModerationPending}
	require.NoError(t, db.Create(&l).Error)

	got, err := svc.SetApproval(ctx, root, l.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationApproved, got.Moderation)
	assert.True(t, got.Public())
	e := lastActivity(t, db)
	assert.Equal(t, activity.ActionListingApproved, e.Action)
	assert.Equal(t, "alice", e.Username)

	got, err = svc.SetApproval(ctx, root, l.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ModerationRejected, got.Moderation)
	assert.Equal(t, activity.ActionListingRejected, lastActivity(t, db).Action)

	_, err = svc.SetApproval(ctx, root, 404, true)
	assert.ErrorIs(t, err, errListingNotFound)
}

func TestService_Snapshots(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()
	for _, status := range []models.ListingStatus{models.ListingActive, models.ListingDeleted} {
		require.NoError(t, db.Create(&models.ListingModel{Owner: "alice", Title: string(status), Category: models.CategoryOther, Condition: models.ConditionFair, Quantity: 1, Status: status, Moderation: models.ModerationPending}).Error)
	}

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[0].Username)

	items, err := svc.Listings(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2, "deleted listings stay visible to admins")
}

func TestService_IssueWarningRollsBack(t *testing.T) {
	db, mock := dbtest.Mock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE username = \\?").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	svc := NewService(activity.NewService(db, nil, nil), nil)
	_, err := svc.IssueWarning(context.Background(), &models.UserModel{Username: "root"}, &WarningDTO{Username: "alice", Reason: "x"})
	assert.EqualError(t, err, "lock wait timeout")
}
