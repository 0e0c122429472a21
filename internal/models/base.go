package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every domain table. IDs are auto-increment integers so
// listing ids stay stable and short in URLs.
type Base struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UUIDBase is used by tables whose ids are handed out to clients as opaque tokens.
type UUIDBase struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *UUIDBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// All returns every model that database.Migrate manages, in dependency order.
func All() []interface{} {
	return []interface{}{
		&UserModel{},
		&UserSession{},
		&ListingModel{},
		&WarningModel{},
		&ActivityLogModel{},
	}
}
