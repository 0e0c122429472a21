package backup

import (
	"errors"
	"time"
)

const backupRootDir = "devicelink"
const backupDBDir = backupRootDir + "/db"
const backupManifestFile = backupRootDir + "/manifest.json"
const backupFormat = "devicelink-bson"
const backupFormatVersion = 1
const defaultS3PathTemplate = "backups/{Y}/{m}/{filename}"
const filenameLayout = "2006-01-02T15-04-05"

// Tables are dumped in this order and restored in the same order so rows
// referencing users land after them.
var backupTableNames = []string{
	"users",
	"user_sessions",
	"listings",
	"user_warnings",
	"activity_logs",
}

var (
	errInvalidArchive = errors.New("invalid backup archive")
	errUnknownFormat  = errors.New("unsupported backup format")
	errNotFound       = errors.New("backup not found")
)

type backupManifest struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	Engine    string    `json:"engine"`
	CreatedAt time.Time `json:"created_at"`
	Tables    []string  `json:"tables"`
}

// Item describes one archive in the backup directory.
type Item struct {
	Filename  string    `json:"filename"`
	Size      string    `json:"size"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Artifact is a freshly written archive. ObjectKey is set when the archive
// was also uploaded.
type Artifact struct {
	Filename  string   `json:"filename"`
	Path      string   `json:"-"`
	ObjectKey string   `json:"object_key,omitempty"`
	Tables    []string `json:"tables"`
	payload   []byte
}
