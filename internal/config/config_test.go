package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.False(t, cfg.Moderation.AutoApprove)
	assert.True(t, cfg.Moderation.ReapproveOnEdit)
	assert.Equal(t, defaultRetentionDays, cfg.Activity.RetentionDays)
	assert.False(t, cfg.Redis.Enable)
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
port: 9100
env: prod
jwt_secret: " s3cret "
allowed_origins: ["http://localhost:3000/", "http://localhost:3000"]
database:
  driver: mysql
  host: db
  user: app
  password: pw
  name: donations
moderation:
  auto_approve: true
  reapprove_on_edit: false
redis:
  url: redis://cache:6379/2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Moderation.AutoApprove)
	assert.False(t, cfg.Moderation.ReapproveOnEdit)
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URLValue())

	parsed, err := mysql.ParseDSN(cfg.Database.DSNValue())
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "pw", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "donations", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEVICELINK_PORT", "7001")
	t.Setenv("DEVICELINK_AUTO_APPROVE", "true")
	t.Setenv("DEVICELINK_DB_PATH", ":memory:")

	cfg, err := Load(writeConfig(t, "port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
	assert.True(t, cfg.Moderation.AutoApprove)
	assert.Equal(t, ":memory:", cfg.Database.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "prot: 1\n"},
		{"bad port", "port: 70000\n"},
		{"bad driver", "database:\n  driver: oracle\n"},
		{"mirror without uri", "activity:\n  mirror:\n    enable: true\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestRedisURLValue(t *testing.T) {
	c := RedisConfig{Host: "localhost", Port: 6380, DB: 1, Password: "pw"}
	assert.Equal(t, "redis://:pw@localhost:6380/1", c.URLValue())
}

func TestResolveRuntimePath(t *testing.T) {
	assert.Equal(t, "/srv/backups", ResolveRuntimePath("/srv/backups/", "backups"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "backups"), ResolveRuntimePath("", "backups"))
}
