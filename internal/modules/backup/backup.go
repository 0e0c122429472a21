package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/devicelink/core/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Uploader pushes a finished archive to remote storage.
type Uploader interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string) error
}

type Service struct {
	db       *gorm.DB
	cfg      config.BackupConfig
	uploader Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the backup service. uploader may be nil, in which case
// archives stay local.
func NewService(db *gorm.DB, cfg config.BackupConfig, uploader Uploader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       db,
		cfg:      cfg,
		uploader: uploader,
		logger:   logger.Named("BackupService"),
		now:      time.Now,
	}
}

func (s *Service) dir() string {
	if strings.TrimSpace(s.cfg.Dir) != "" {
		return s.cfg.Dir
	}
	return config.ResolveRuntimePath("", "backups")
}

// Create dumps every table into a zip under the backup directory, uploads it
// when an uploader is configured and prunes old archives down to Keep.
func (s *Service) Create(ctx context.Context) (*Artifact, error) {
	now := s.now()
	buf, tables, err := s.archive(ctx, now)
	if err != nil {
		return nil, err
	}

	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	filename := fmt.Sprintf("backup-%s.zip", now.UTC().Format(filenameLayout))
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	artifact := &Artifact{Filename: filename, Path: filePath, Tables: tables, payload: buf.Bytes()}
	s.logger.Info("backup written", zap.String("file", filePath), zap.Int("bytes", buf.Len()))

	if s.uploader != nil {
		key := renderObjectKey(s.cfg.S3.Path, filename, now)
		if err := s.uploader.Upload(ctx, key, artifact.payload, "application/zip"); err != nil {
			return artifact, fmt.Errorf("upload backup: %w", err)
		}
		artifact.ObjectKey = key
		s.logger.Info("backup uploaded", zap.String("key", key))
	}

	if err := s.prune(); err != nil {
		s.logger.Warn("prune backups failed", zap.Error(err))
	}
	return artifact, nil
}

func (s *Service) archive(ctx context.Context, now time.Time) (*bytes.Buffer, []string, error) {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	tables := make([]string, 0, len(backupTableNames))
	for _, table := range backupTableNames {
		var rows []map[string]interface{}
		if err := s.db.WithContext(ctx).Table(table).Order("id").Find(&rows).Error; err != nil {
			return nil, nil, fmt.Errorf("dump %s: %w", table, err)
		}
		payload, err := encodeBSONRows(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s: %w", table, err)
		}
		f, err := w.Create(path.Join(backupDBDir, table+".bson"))
		if err != nil {
			return nil, nil, err
		}
		if _, err := f.Write(payload); err != nil {
			return nil, nil, err
		}
		tables = append(tables, table)
	}

	manifest := backupManifest{
		Format:    backupFormat,
		Version:   backupFormatVersion,
		Engine:    s.db.Dialector.Name(),
		CreatedAt: now.UTC(),
		Tables:    tables,
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, nil, err
	}
	mf, err := w.Create(backupManifestFile)
	if err != nil {
		return nil, nil, err
	}
	if _, err := mf.Write(data); err != nil {
		return nil, nil, err
	}

	if err := w.Close(); err != nil {
		return nil, nil, err
	}
	return buf, tables, nil
}

// List returns archives in the backup directory, newest first.
func (s *Service) List() ([]Item, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []Item{}, nil
		}
		return nil, err
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, Item{
			Filename:  e.Name(),
			Size:      formatSize(info.Size()),
			Bytes:     info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	// Filenames embed a sortable timestamp.
	sort.Slice(items, func(i, j int) bool { return items[i].Filename > items[j].Filename })
	return items, nil
}

// Open returns the absolute path of a listed archive.
func (s *Service) Open(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".zip") {
		return "", errNotFound
	}
	p := filepath.Join(s.dir(), filename)
	if _, err := os.Stat(p); err != nil {
		return "", errNotFound
	}
	return p, nil
}

func (s *Service) prune() error {
	if s.cfg.Keep <= 0 {
		return nil
	}
	items, err := s.List()
	if err != nil {
		return err
	}
	for i := s.cfg.Keep; i < len(items); i++ {
		if err := os.Remove(filepath.Join(s.dir(), items[i].Filename)); err != nil {
			return err
		}
		s.logger.Debug("backup pruned", zap.String("file", items[i].Filename))
	}
	return nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
