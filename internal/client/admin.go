package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type User struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuspended  bool   `json:"is_suspended"`
	WarningCount int    `json:"warning_count"`
}

type Warning struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Reason    string    `json:"reason"`
	IssuedBy  string    `json:"issued_by"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityEntry struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Backup struct {
	Filename  string    `json:"filename"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	ObjectKey string    `json:"object_key,omitempty"`
}

type Job struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Interval    string     `json:"interval"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	NextRunAt   time.Time  `json:"next_run_at"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := c.do(ctx, "fetch users", http.MethodGet, "/admin/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AllListings includes pending, rejected and deleted listings.
func (c *Client) AllListings(ctx context.Context) ([]Listing, error) {
	items := []Listing{}
	if err := c.do(ctx, "fetch listings", http.MethodGet, "/admin/listings", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ActivityLogs returns the newest entries; limit <= 0 uses the server default.
func (c *Client) ActivityLogs(ctx context.Context, limit int) ([]ActivityEntry, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	entries := []ActivityEntry{}
	if err := c.do(ctx, "fetch activity logs", http.MethodGet, "/admin/activity-logs", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Warnings(ctx context.Context, username string) ([]Warning, error) {
	warnings := []Warning{}
	if err := c.do(ctx, "fetch warnings", http.MethodGet, "/admin/warnings/"+url.PathEscape(username), nil, nil, &warnings); err != nil {
		return nil, err
	}
	return warnings, nil
}

func (c *Client) IssueWarning(ctx context.Context, username, reason string) error {
	body := map[string]string{"username": username, "reason": reason}
	return c.do(ctx, "issue warning", http.MethodPost, "/admin/warning", nil, body, nil)
}

func (c *Client) SetSuspended(ctx context.Context, username string, suspended bool) error {
	body := map[string]interface{}{"username": username, "is_suspended": suspended}
	return c.do(ctx, "update suspension status", http.MethodPost, "/admin/suspend", nil, body, nil)
}

func (c *Client) ApproveListing(ctx context.Context, id uint, approved bool) error {
	body := map[string]interface{}{"listing_id": id, "approved": approved}
	return c.do(ctx, "update listing", http.MethodPost, "/admin/approve-listing", nil, body, nil)
}

func (c *Client) Backups(ctx context.Context) ([]Backup, error) {
	items := []Backup{}
	if err := c.do(ctx, "fetch backups", http.MethodGet, "/admin/backups", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateBackup(ctx context.Context) (*Backup, error) {
	var b Backup
	if err := c.do(ctx, "create backup", http.MethodPost, "/admin/backups", nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) Jobs(ctx context.Context) ([]Job, error) {
	jobs := []Job{}
	if err := c.do(ctx, "fetch jobs", http.MethodGet, "/admin/jobs", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// RunJob triggers a job and waits for it. A job that ran but failed is not an
// error; its status and message are returned.
func (c *Client) RunJob(ctx context.Context, name string) (status, message string, err error) {
	var res struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, "run job", http.MethodPost, "/admin/jobs/"+url.PathEscape(name)+"/run", nil, nil, &res); err != nil {
		return "", "", err
	}
	return res.Status, res.Message, nil
}
