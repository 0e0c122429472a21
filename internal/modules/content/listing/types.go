package listing

import (
	"errors"
	"time"

	"github.com/devicelink/core/internal/models"
)

var (
	errListingNotFound = errors.New("listing not found")
	errNotOwner        = errors.New("only the owner may change this listing")
	errInvalidFilter   = errors.New("invalid filter")
)

// ListingDTO is the body of POST /listings. Owner is accepted for old clients
// and must match the caller when present.
type ListingDTO struct {
	Title       string           `json:"title"       binding:"required,max=200"`
	Description string           `json:"description" binding:"max=5000"`
	Category    models.Category  `json:"category"    binding:"required,category"`
	Condition   models.Condition `json:"condition"   binding:"required,condition"`
	Quantity    int              `json:"quantity"    binding:"required,min=1,max=10000"`
	Owner       string           `json:"owner"`
}

// UpdateListingDTO is the body of PUT /listings/:id, a full replacement of the editable fields.
type UpdateListingDTO struct {
	Title       string               `json:"title"       binding:"required,max=200"`
	Description string               `json:"description" binding:"max=5000"`
	Category    models.Category      `json:"category"    binding:"required,category"`
	Condition   models.Condition     `json:"condition"   binding:"required,condition"`
	Quantity    int                  `json:"quantity"    binding:"required,min=1,max=10000"`
	Status      models.ListingStatus `json:"status"      binding:"required,listing_status"`
}

type Response struct {
	ID          uint                   `json:"id"`
	Owner       string                 `json:"owner"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    models.Category        `json:"category"`
	Condition   models.Condition       `json:"condition"`
	Quantity    int                    `json:"quantity"`
	Status      models.ListingStatus   `json:"status"`
	Moderation  models.ModerationState `json:"moderation"`
	Approved    bool                   `json:"approved"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToResponse renders a listing with the derived approved flag.
func ToResponse(l *models.ListingModel) Response {
	return Response{
		ID:          l.ID,
		Owner:       l.Owner,
		Title:       l.Title,
		Description: l.Description,
		Category:    l.Category,
		Condition:   l.Condition,
		Quantity:    l.Quantity,
		Status:      l.Status,
		Moderation:  l.Moderation,
		Approved:    l.Approved(),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// ToResponses renders a snapshot; never nil so it encodes as [].
func ToResponses(items []models.ListingModel) []Response {
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, ToResponse(&items[i]))
	}
	return out
}
