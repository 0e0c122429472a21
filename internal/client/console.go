package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type Tab string

const (
	TabAccounts Tab = "accounts"
	TabListings Tab = "listings"
	TabActivity Tab = "activity"
)

var ErrEmptyReason = errors.New("please enter a warning reason")

// Console is the admin view. Each tab owns one collection that is fetched
// when the tab is opened and after any action that changes it.
type Console struct {
	c *Client

	mu       sync.Mutex
	tab      Tab
	users    []User
	listings []Listing
	activity []ActivityEntry

	// ActivityLimit is passed to the activity log fetch; zero uses the
	// server default.
	ActivityLimit int
}

func NewConsole(c *Client) *Console {
	return &Console{
		c:        c,
		tab:      TabAccounts,
		users:    []User{},
		listings: []Listing{},
		activity: []ActivityEntry{},
	}
}

func (k *Console) Tab() Tab {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tab
}

// SwitchTab makes tab active and fetches its collection once.
func (k *Console) SwitchTab(ctx context.Context, tab Tab) error {
	switch tab {
	case TabAccounts, TabListings, TabActivity:
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}
	k.mu.Lock()
	k.tab = tab
	k.mu.Unlock()
	return k.load(ctx, tab)
}

// Reload re-fetches the active tab.
func (k *Console) Reload(ctx context.Context) error {
	return k.load(ctx, k.Tab())
}

func (k *Console) load(ctx context.Context, tab Tab) error {
	switch tab {
	case TabAccounts:
		users, err := k.c.Users(ctx)
		if err != nil {
			return err
		}
		k.mu.Lock()
		k.users = users
		k.mu.Unlock()
	case TabListings:
		items, err := k.c.AllListings(ctx)
		if err != nil {
			return err
		}
		k.mu.Lock()
		k.listings = items
		k.mu.Unlock()
	case TabActivity:
		entries, err := k.c.ActivityLogs(ctx, k.ActivityLimit)
		if err != nil {
			return err
		}
		k.mu.Lock()
		k.activity = entries
		k.mu.Unlock()
	}
	return nil
}

func (k *Console) Users() []User {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]User(nil), k.users...)
}

func (k *Console) Listings() []Listing {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]Listing(nil), k.listings...)
}

func (k *Console) Activity() []ActivityEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]ActivityEntry(nil), k.activity...)
}

// Warnings fetches the warning history of one user.
func (k *Console) Warnings(ctx context.Context, username string) ([]Warning, error) {
	return k.c.Warnings(ctx, username)
}

// IssueWarning warns username and refreshes the accounts collection so the
// new warning count shows.
func (k *Console) IssueWarning(ctx context.Context, username, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}
	if err := k.c.IssueWarning(ctx, username, reason); err != nil {
		return err
	}
	return k.load(ctx, TabAccounts)
}

func (k *Console) SetSuspended(ctx context.Context, username string, suspended bool) error {
	if err := k.c.SetSuspended(ctx, username, suspended); err != nil {
		return err
	}
	return k.load(ctx, TabAccounts)
}

func (k *Console) Approve(ctx context.Context, id uint, approved bool) error {
	if err := k.c.ApproveListing(ctx, id, approved); err != nil {
		return err
	}
	return k.load(ctx, TabListings)
}
