package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devicelink/core/internal/app"
	"github.com/devicelink/core/internal/config"
	"github.com/devicelink/core/internal/database"
	"github.com/devicelink/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	server string
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Env = "test"
	cfg.JWTSecret = "test-secret"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(dir, "devicelink.db")
	cfg.Backup.Dir = filepath.Join(dir, "backups")

	a, err := app.New(nil, cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(a.Router())
	t.Cleanup(func() {
		srv.Close()
		a.Shutdown(context.Background())
	})
	return &harness{t: t, server: srv.URL, dbPath: cfg.Database.Path}
}

// as runs the CLI with a session file per user.
func (h *harness) as(user, stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	session := filepath.Join(filepath.Dir(h.dbPath), user+".json")
	cmd.SetArgs(append(args, "--server", h.server, "--session", session))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) promote(username string) {
	h.t.Helper()
	db, err := database.OpenSQLite(h.dbPath)
	require.NoError(h.t, err)
	defer database.Close(db)
	require.NoError(h.t, db.Model(&models.UserModel{}).Where("username = ?", username).Update("is_admin", true).Error)
}

func TestCLI_DonorAndAdminFlow(t *testing.T) {
	h := newHarness(t)

	out, err := h.as("alice", "", "register", "alice", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, out, "at least 8 characters")

	out, err = h.as("alice", "password123\n", "register", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Success! Please login.")
	_, err = h.as("root", "", "register", "root", "--password", "password123")
	require.NoError(t, err)
	h.promote("root")

	out, err = h.as("alice", "", "login", "alice", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice (user)")
	out, err = h.as("root", "", "login", "root", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as root (admin)")

	out, err = h.as("alice", "", "listings", "create", "--title", "iPad mini", "--category", "Tablet", "--condition", "Fair", "--quantity", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Created listing 1 (PENDING)")

	out, err = h.as("root", "", "listings", "--category", "Tablet")
	require.NoError(t, err)
	assert.Contains(t, out, "Public listings (0)")

	out, err = h.as("alice", "", "admin", "users")
	require.Error(t, err)
	assert.Contains(t, out, "Admin access required")

	out, err = h.as("root", "", "admin", "approve", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Listing 1 is APPROVED")

	out, err = h.as("root", "", "listings", "--category", "Tablet", "--min", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Public listings (1)")
	assert.Contains(t, out, "iPad mini")

	out, err = h.as("alice", "", "listings", "status", "1", "COMPLETED")
	require.NoError(t, err)
	assert.Contains(t, out, "Listing 1 is now COMPLETED")

	out, err = h.as("alice", "", "listings", "edit", "1", "--title", "iPad mini 5")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated listing 1 (COMPLETED, PENDING)")

	out, err = h.as("root", "", "admin", "warn", "alice", "late", "pickup")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning issued to alice (1 total)")

	out, err = h.as("root", "", "admin", "warnings", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "late pickup")

	out, err = h.as("root", "", "admin", "activity", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "warning_issued")

	_, err = h.as("root", "", "admin", "suspend", "alice")
	require.NoError(t, err)
	_, err = h.as("alice", "", "listings")
	require.NoError(t, err)
	out, err = h.as("alice", "", "listings", "delete", "1")
	require.Error(t, err)
	assert.Contains(t, out, "suspended")

	out, err = h.as("root", "", "admin", "backups", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written: backup-")

	out, err = h.as("root", "", "admin", "jobs", "run", "cleanup_sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "cleanup_sessions: ok")

	out, err = h.as("root", "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")
	_, err = h.as("root", "", "whoami")
	assert.Error(t, err)
}
