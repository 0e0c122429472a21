package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 8000
	defaultEnv           = "development"
	defaultTokenTTLHours = 24 * 7
	defaultDriver        = DriverSQLite
	defaultSQLitePath    = "devicelink.db"
	defaultDBHost        = "127.0.0.1"
	defaultDBPort        = 3306
	defaultDBUser        = "root"
	defaultDBName        = "devicelink"
	defaultDBCharset     = "utf8mb4"
	defaultRedisHost     = "localhost"
	defaultRedisPort     = 6379
	defaultRedisPrefix   = "devicelink"
	defaultRetentionDays = 90
	defaultMirrorDB      = "devicelink"
	defaultMirrorColl    = "activity_logs"
	defaultBackupHours   = 24
	defaultBackupKeep    = 7
	defaultBackupPath    = "backups/{Y}/{m}/{filename}"
	defaultAuthPerMinute = 20

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)
