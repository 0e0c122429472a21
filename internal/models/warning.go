package models

import "time"

// WarningModel is an append-only moderation warning issued to a user.
type WarningModel struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username"   gorm:"index;size:64;not null"`
	Reason    string    `json:"reason"     gorm:"type:text;not null"`
	IssuedBy  string    `json:"issued_by"  gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (WarningModel) TableName() string { return "user_warnings" }
