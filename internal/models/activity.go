package models

import "time"

// ActivityLogModel is one audit record. Rows are never updated.
type ActivityLogModel struct {
	ID        uint      `json:"id"         bson:"id"         gorm:"primaryKey;autoIncrement"`
	Action    string    `json:"action"     bson:"action"     gorm:"index;size:64;not null"`
	Username  string    `json:"username"   bson:"username"   gorm:"index;size:64;not null"`
	Details   string    `json:"details"    bson:"details"    gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" gorm:"index"`
}

func (ActivityLogModel) TableName() string { return "activity_logs" }
