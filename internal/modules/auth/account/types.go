package account

import (
	"errors"

	"github.com/devicelink/core/internal/models"
)

var (
	errUsernameTaken      = errors.New("username already taken")
	errInvalidCredentials = errors.New("invalid credentials")
	errSuspended          = errors.New("account suspended")
	errUserNotFound       = errors.New("user not found")
	errPasswordTooShort   = errors.New("password must be at least 8 characters")

	// ErrPasswordRequired is returned by EnsureAdmin when the user has to be
	// created and no usable password was given.
	ErrPasswordRequired = errors.New("password of at least 8 characters required to create a new admin")
)

const MinPasswordLength = 8

type RegisterDTO struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type userResponse struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuspended  bool   `json:"is_suspended"`
	WarningCount int    `json:"warning_count"`
}

func toUserResponse(u *models.UserModel) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		IsAdmin:      u.IsAdmin,
		IsSuspended:  u.IsSuspended,
		WarningCount: u.WarningCount,
	}
}
