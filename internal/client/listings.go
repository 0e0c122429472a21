package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusDeleted   = "DELETED"
)

type Listing struct {
	ID          uint      `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	Moderation  string    `json:"moderation"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListingInput is the body of a create.
type ListingInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	Quantity    int    `json:"quantity"`
}

// ListingUpdate is the full field set a PUT replaces.
type ListingUpdate struct {
	ListingInput
	Status string `json:"status"`
}

// UpdateFrom returns the editable fields of l, ready to be modified and sent.
func UpdateFrom(l Listing) ListingUpdate {
	return ListingUpdate{
		ListingInput: ListingInput{
			Title:       l.Title,
			Description: l.Description,
			Category:    l.Category,
			Condition:   l.Condition,
			Quantity:    l.Quantity,
		},
		Status: l.Status,
	}
}

// ListingFilter holds the query of GET /listings. Zero fields are omitted.
type ListingFilter struct {
	OwnUsername  string
	Approved     *bool
	Query        string
	Category     string
	Condition    string
	MinQuantity  *int
	MaxQuantity  *int
	ExcludeOwner string
}

// Values encodes the present filter fields verbatim.
func (f ListingFilter) Values() url.Values {
	v := url.Values{}
	if f.OwnUsername != "" {
		v.Set("own_username", f.OwnUsername)
	}
	if f.Approved != nil {
		v.Set("approved", strconv.FormatBool(*f.Approved))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Condition != "" {
		v.Set("condition", f.Condition)
	}
	if f.MinQuantity != nil {
		v.Set("min_quantity", strconv.Itoa(*f.MinQuantity))
	}
	if f.MaxQuantity != nil {
		v.Set("max_quantity", strconv.Itoa(*f.MaxQuantity))
	}
	if f.ExcludeOwner != "" {
		v.Set("exclude_owner", f.ExcludeOwner)
	}
	return v
}

func listingPath(id uint) string {
	return fmt.Sprintf("/listings/%d", id)
}

func (c *Client) ListListings(ctx context.Context, f ListingFilter) ([]Listing, error) {
	items := []Listing{}
	if err := c.do(ctx, "fetch listings", http.MethodGet, "/listings", f.Values(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetListing(ctx context.Context, id uint) (*Listing, error) {
	var l Listing
	if err := c.do(ctx, "fetch listing", http.MethodGet, listingPath(id), nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) CreateListing(ctx context.Context, in ListingInput) (*Listing, error) {
	var l Listing
	if err := c.do(ctx, "create listing", http.MethodPost, "/listings", nil, in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) UpdateListing(ctx context.Context, id uint, in ListingUpdate) (*Listing, error) {
	var l Listing
	if err := c.do(ctx, "update listing", http.MethodPut, listingPath(id), nil, in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) DeleteListing(ctx context.Context, id uint) error {
	return c.do(ctx, "delete listing", http.MethodDelete, listingPath(id), nil, nil, nil)
}
