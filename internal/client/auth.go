package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

const MinPasswordLength = 8

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrNotLoggedIn      = errors.New("not logged in")
)

// Session is what Login hands back and what a CLI persists between runs.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// ValidatePassword is checked before any credential leaves the process.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return c.do(ctx, "register", http.MethodPost, "/register", nil, credentials{username, password}, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	if err := ValidatePassword(password); err != nil {
		return Session{}, err
	}
	var res Session
	if err := c.do(ctx, "log in", http.MethodPost, "/login", nil, credentials{username, password}, &res); err != nil {
		return Session{}, err
	}
	c.token, c.username, c.isAdmin = res.Token, res.Username, res.IsAdmin
	return res, nil
}

// Logout revokes the session on the server and forgets it locally. The local
// state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.LoggedIn() {
		return nil
	}
	err := c.do(ctx, "log out", http.MethodPost, "/logout", nil, nil, nil)
	c.token, c.username, c.isAdmin = "", "", false
	return err
}

func (c *Client) CheckAdmin(ctx context.Context, username string) (bool, error) {
	var res struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.do(ctx, "check admin status", http.MethodGet, "/admin/check/"+url.PathEscape(username), nil, nil, &res); err != nil {
		return false, err
	}
	return res.IsAdmin, nil
}
