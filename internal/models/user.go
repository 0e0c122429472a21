package models

// UserModel is an account. Password holds the bcrypt hash and never leaves the server.
type UserModel struct {
	Base
	Username     string `json:"username"      gorm:"uniqueIndex;size:64;not null"`
	Password     string `json:"-"             gorm:"size:128;not null"`
	IsAdmin      bool   `json:"is_admin"      gorm:"not null;default:false"`
	IsSuspended  bool   `json:"is_suspended"  gorm:"not null;default:false"`
	WarningCount int    `json:"warning_count" gorm:"not null;default:0"`
}

func (UserModel) TableName() string { return "users" }
