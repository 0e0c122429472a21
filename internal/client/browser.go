package client

import (
	"context"
	"fmt"
	"sync"
)

// Browser is the listing view of a logged in user: their own listings
// followed by the public ones matching Filter.
type Browser struct {
	c *Client

	mu       sync.Mutex
	filter   ListingFilter
	listings []Listing
}

func NewBrowser(c *Client) *Browser {
	return &Browser{c: c, listings: []Listing{}}
}

// SetFilter changes the public half of the next Refresh. OwnUsername,
// Approved and ExcludeOwner are managed by the browser and ignored.
func (b *Browser) SetFilter(f ListingFilter) {
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
}

// Listings returns a copy of the current collection.
func (b *Browser) Listings() []Listing {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Listing, len(b.listings))
	copy(out, b.listings)
	return out
}

// Split partitions the current collection for display.
func (b *Browser) Split() (own, public []Listing) {
	return Partition(b.Listings(), b.c.username)
}

// Refresh fetches the caller's listings and the public listings of everyone
// else, then replaces the collection. On error the previous state is kept.
func (b *Browser) Refresh(ctx context.Context) error {
	username := b.c.username
	if !b.c.LoggedIn() || username == "" {
		return ErrNotLoggedIn
	}

	own, err := b.c.ListListings(ctx, ListingFilter{OwnUsername: username})
	if err != nil {
		return err
	}

	b.mu.Lock()
	f := b.filter
	b.mu.Unlock()
	approved := true
	f.OwnUsername = ""
	f.Approved = &approved
	f.ExcludeOwner = username
	public, err := b.c.ListListings(ctx, f)
	if err != nil {
		return err
	}

	next := make([]Listing, 0, len(own)+len(public))
	next = append(next, own...)
	next = append(next, public...)

	b.mu.Lock()
	b.listings = next
	b.mu.Unlock()
	return nil
}

func (b *Browser) Create(ctx context.Context, in ListingInput) (*Listing, error) {
	l, err := b.c.CreateListing(ctx, in)
	if err != nil {
		return nil, err
	}
	return l, b.Refresh(ctx)
}

func (b *Browser) Update(ctx context.Context, id uint, in ListingUpdate) (*Listing, error) {
	l, err := b.c.UpdateListing(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return l, b.Refresh(ctx)
}

func (b *Browser) Delete(ctx context.Context, id uint) error {
	if err := b.c.DeleteListing(ctx, id); err != nil {
		return err
	}
	return b.Refresh(ctx)
}

// SetStatus changes only the lifecycle status. The listing must be in the
// current collection since a PUT carries every editable field.
func (b *Browser) SetStatus(ctx context.Context, id uint, status string) (*Listing, error) {
	var current *Listing
	for _, l := range b.Listings() {
		if l.ID == id {
			l := l
			current = &l
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("listing %d is not loaded", id)
	}
	in := UpdateFrom(*current)
	in.Status = status
	return b.Update(ctx, id, in)
}
