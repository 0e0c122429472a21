package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime configuration. Values come from defaults, then the YAML
// file, then DEVICELINK_* environment variables.
type AppConfig struct {
	Port           int              `yaml:"port"            env:"DEVICELINK_PORT"`
	Env            string           `yaml:"env"             env:"DEVICELINK_ENV"`
	JWTSecret      string           `yaml:"jwt_secret"      env:"DEVICELINK_JWT_SECRET"`
	TokenTTLHours  int              `yaml:"token_ttl_hours" env:"DEVICELINK_TOKEN_TTL_HOURS"`
	AllowedOrigins []string         `yaml:"allowed_origins" env:"DEVICELINK_ALLOWED_ORIGINS" env-separator:","`
	Timezone       string           `yaml:"timezone"        env:"DEVICELINK_TIMEZONE"`
	Database       DatabaseConfig   `yaml:"database"`
	Redis          RedisConfig      `yaml:"redis"`
	Moderation     ModerationConfig `yaml:"moderation"`
	Activity       ActivityConfig   `yaml:"activity"`
	Backup         BackupConfig     `yaml:"backup"`
	RateLimit      RateLimitConfig  `yaml:"rate_limit"`
	Paths          PathsConfig      `yaml:"paths"`
}

type DatabaseConfig struct {
	Driver   string            `yaml:"driver"   env:"DEVICELINK_DB_DRIVER"`
	DSN      string            `yaml:"dsn"      env:"DEVICELINK_DB_DSN"`
	Host     string            `yaml:"host"     env:"DEVICELINK_DB_HOST"`
	Port     int               `yaml:"port"     env:"DEVICELINK_DB_PORT"`
	User     string            `yaml:"user"     env:"DEVICELINK_DB_USER"`
	Password string            `yaml:"password" env:"DEVICELINK_DB_PASSWORD"`
	Name     string            `yaml:"name"     env:"DEVICELINK_DB_NAME"`
	Charset  string            `yaml:"charset"`
	Params   map[string]string `yaml:"params"`
	// Path is the sqlite database file. ":memory:" keeps everything in process.
	Path string `yaml:"path" env:"DEVICELINK_DB_PATH"`
}

type RedisConfig struct {
	Enable   bool   `yaml:"enable"   env:"DEVICELINK_REDIS_ENABLE"`
	URL      string `yaml:"url"      env:"DEVICELINK_REDIS_URL"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password" env:"DEVICELINK_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type ModerationConfig struct {
	// AutoApprove publishes new listings without waiting for an admin.
	AutoApprove bool `yaml:"auto_approve" env:"DEVICELINK_AUTO_APPROVE"`
	// ReapproveOnEdit sends an edited listing back to the moderation queue.
	ReapproveOnEdit bool `yaml:"reapprove_on_edit" env:"DEVICELINK_REAPPROVE_ON_EDIT"`
}

type ActivityConfig struct {
	RetentionDays int          `yaml:"retention_days" env:"DEVICELINK_ACTIVITY_RETENTION_DAYS"`
	Mirror        MirrorConfig `yaml:"mirror"`
}

// MirrorConfig enables copying activity entries into MongoDB.
type MirrorConfig struct {
	Enable     bool   `yaml:"enable"     env:"DEVICELINK_MIRROR_ENABLE"`
	URI        string `yaml:"mongo_uri"  env:"DEVICELINK_MIRROR_URI"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type BackupConfig struct {
	Enable        bool     `yaml:"enable"         env:"DEVICELINK_BACKUP_ENABLE"`
	Dir           string   `yaml:"dir"            env:"DEVICELINK_BACKUP_DIR"`
	IntervalHours int      `yaml:"interval_hours"`
	Keep          int      `yaml:"keep"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"            env:"DEVICELINK_S3_BUCKET"`
	Region          string `yaml:"region"            env:"DEVICELINK_S3_REGION"`
	Endpoint        string `yaml:"endpoint"          env:"DEVICELINK_S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id"     env:"DEVICELINK_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"DEVICELINK_S3_SECRET_ACCESS_KEY"`
	Path            string `yaml:"path"`
	PathStyle       bool   `yaml:"path_style"`
}

// Enabled reports whether enough is set to upload.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

type RateLimitConfig struct {
	Enable bool `yaml:"enable" env:"DEVICELINK_RATE_LIMIT_ENABLE"`
	// AuthPerMinute caps /login and /register attempts per client IP.
	AuthPerMinute int `yaml:"auth_per_minute"`
}

type PathsConfig struct {
	Logs string `yaml:"logs" env:"DEVICELINK_LOG_DIR"`
}

// Load reads the YAML file at configPath, an optional .env beside it, and
// environment overrides. A missing file at the default path is not an error.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func decodeYAML(content []byte, cfg *AppConfig) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

// Default returns the built-in configuration, used by tools and tests.
func Default() *AppConfig {
	cfg := defaultAppConfig()
	normalize(&cfg)
	return &cfg
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:          defaultPort,
		Env:           defaultEnv,
		TokenTTLHours: defaultTokenTTLHours,
		Database: DatabaseConfig{
			Driver:  defaultDriver,
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
			Path:    defaultSQLitePath,
		},
		Redis: RedisConfig{
			Host:   defaultRedisHost,
			Port:   defaultRedisPort,
			Prefix: defaultRedisPrefix,
		},
		Moderation: ModerationConfig{
			ReapproveOnEdit: true,
		},
		Activity: ActivityConfig{
			RetentionDays: defaultRetentionDays,
			Mirror: MirrorConfig{
				Database:   defaultMirrorDB,
				Collection: defaultMirrorColl,
			},
		},
		Backup: BackupConfig{
			IntervalHours: defaultBackupHours,
			Keep:          defaultBackupKeep,
			S3: S3Config{
				Path: defaultBackupPath,
			},
		},
		RateLimit: RateLimitConfig{
			Enable:        true,
			AuthPerMinute: defaultAuthPerMinute,
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
			return fmt.Errorf("database.port %d out of range 1-65535", c.Database.Port)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db %d must be >= 0", c.Redis.DB)
	}
	if c.TokenTTLHours <= 0 {
		return errors.New("token_ttl_hours must be positive")
	}
	if c.Activity.RetentionDays < 0 {
		return errors.New("activity.retention_days must be >= 0")
	}
	if c.Activity.Mirror.Enable && c.Activity.Mirror.URI == "" {
		return errors.New("activity.mirror.mongo_uri is required when the mirror is enabled")
	}
	if c.Backup.Enable && c.Backup.IntervalHours <= 0 {
		return errors.New("backup.interval_hours must be positive")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == defaultEnv
}

// Addr is the listen address for http.Server.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// TokenTTL is the lifetime of issued sessions.
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" || cfg.Env == "dev" {
		cfg.Env = defaultEnv
	}
	if cfg.Env == "prod" {
		cfg.Env = "production"
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)

	db := &cfg.Database
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	if db.Driver == "sqlite3" {
		db.Driver = DriverSQLite
	}
	db.DSN = strings.TrimSpace(db.DSN)
	db.Host = strings.TrimSpace(db.Host)
	db.User = strings.TrimSpace(db.User)
	db.Name = strings.TrimSpace(db.Name)
	db.Path = strings.TrimSpace(db.Path)

	cfg.Redis.URL = strings.TrimSpace(cfg.Redis.URL)
	cfg.Redis.Host = strings.TrimSpace(cfg.Redis.Host)
	if cfg.Redis.URL != "" {
		cfg.Redis.Enable = true
	}

	cfg.Paths.Logs = strings.TrimSpace(cfg.Paths.Logs)
	cfg.Backup.Dir = ResolveRuntimePath(cfg.Backup.Dir, "backups")
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(origins))
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
