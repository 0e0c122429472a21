package moderation

import (
	"errors"
	"time"

	"github.com/devicelink/core/internal/models"
)

var (
	errUserNotFound    = errors.New("user not found")
	errListingNotFound = errors.New("listing not found")
	errSelfSuspend     = errors.New("admins cannot suspend themselves")
)

type WarningDTO struct {
	Username string `json:"username" binding:"required"`
	Reason   string `json:"reason"   binding:"required,max=2000"`
}

type SuspendDTO struct {
	Username    string `json:"username"     binding:"required"`
	IsSuspended *bool  `json:"is_suspended" binding:"required"`
}

type ApprovalDTO struct {
	ListingID uint  `json:"listing_id" binding:"required"`
	Approved  *bool `json:"approved"   binding:"required"`
}

type userResponse struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	IsAdmin      bool      `json:"is_admin"`
	IsSuspended  bool      `json:"is_suspended"`
	WarningCount int       `json:"warning_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponses(users []models.UserModel) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			ID:           u.ID,
			Username:     u.Username,
			IsAdmin:      u.IsAdmin,
			IsSuspended:  u.IsSuspended,
			WarningCount: u.WarningCount,
			CreatedAt:    u.CreatedAt,
		})
	}
	return out
}
