package models

import (
	"strings"

	"gorm.io/gorm"
)

// Category is the kind of device being donated.
type Category string

const (
	CategoryLaptop Category = "Laptop"
	CategoryPhone  Category = "Phone"
	CategoryTablet Category = "Tablet"
	CategoryOther  Category = "Other"
)

var Categories = []Category{CategoryLaptop, CategoryPhone, CategoryTablet, CategoryOther}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Condition is the physical state of the device.
type Condition string

const (
	ConditionExcellent Condition = "Excellent"
	ConditionGood      Condition = "Good"
	ConditionFair      Condition = "Fair"
	ConditionPoor      Condition = "Poor"
)

var Conditions = []Condition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}

func (c Condition) Valid() bool {
	for _, v := range Conditions {
		if c == v {
			return true
		}
	}
	return false
}

// ListingStatus is the owner-controlled lifecycle of a listing.
type ListingStatus string

const (
	ListingActive    ListingStatus = "ACTIVE"
	ListingCompleted ListingStatus = "COMPLETED"
	ListingDeleted   ListingStatus = "DELETED"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingCompleted, ListingDeleted:
		return true
	}
	return false
}

// ModerationState is the admin decision on a listing.
type ModerationState string

const (
	ModerationPending  ModerationState = "PENDING"
	ModerationApproved ModerationState = "APPROVED"
	ModerationRejected ModerationState = "REJECTED"
)

// ListingModel is a donation offer. It is public only while ACTIVE and APPROVED.
type ListingModel struct {
	Base
	Owner       string          `json:"owner"       gorm:"index;size:64;not null"`
	Title       string          `json:"title"       gorm:"size:200;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    Category        `json:"category"    gorm:"index;size:16;not null"`
	Condition   Condition       `json:"condition"   gorm:"column:device_condition;size:16;not null"`
	Quantity    int             `json:"quantity"    gorm:"not null;default:1"`
	Status      ListingStatus   `json:"status"      gorm:"index;size:16;not null;default:ACTIVE"`
	Moderation  ModerationState `json:"moderation"  gorm:"index;size:16;not null;default:PENDING"`
	// SearchText is title and description folded to lower case in Go, since
	// SQLite's LOWER only folds ASCII.
	SearchText string `json:"-" gorm:"type:text"`
}

func (ListingModel) TableName() string { return "listings" }

// FoldSearch builds the search_text value for a title and description.
func FoldSearch(title, description string) string {
	return strings.ToLower(title + "\n" + description)
}

func (l *ListingModel) BeforeCreate(tx *gorm.DB) error {
	l.SearchText = FoldSearch(l.Title, l.Description)
	return nil
}

func (l *ListingModel) Approved() bool { return l.Moderation == ModerationApproved }

// Public reports whether anonymous users may see the listing.
func (l *ListingModel) Public() bool {
	return l.Status == ListingActive && l.Moderation == ModerationApproved
}
