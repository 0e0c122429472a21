package backup

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const restoreBatchSize = 200

// Restore replaces the contents of every table found in the archive. Tables
// missing from the archive are left untouched. The whole import runs in one
// transaction.
func (s *Service) Restore(ctx context.Context, filename string) error {
	p, err := s.Open(filename)
	if err != nil {
		return err
	}
	zr, err := zip.OpenReader(p)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidArchive, err)
	}
	defer zr.Close()
	return s.restoreFrom(ctx, &zr.Reader)
}

func (s *Service) restoreFrom(ctx context.Context, zr *zip.Reader) error {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	mf, ok := files[backupManifestFile]
	if !ok {
		return fmt.Errorf("%w: missing manifest", errInvalidArchive)
	}
	var manifest backupManifest
	if err := readJSON(mf, &manifest); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArchive, err)
	}
	if manifest.Format != backupFormat || manifest.Version > backupFormatVersion {
		return fmt.Errorf("%w: %s v%d", errUnknownFormat, manifest.Format, manifest.Version)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range backupTableNames {
			f, ok := files[path.Join(backupDBDir, table+".bson")]
			if !ok {
				continue
			}
			payload, err := readAll(f)
			if err != nil {
				return err
			}
			rows, err := decodeBSONRows(payload)
			if err != nil {
				return fmt.Errorf("decode %s: %w", table, err)
			}
			if err := checkColumns(tx, table, rows); err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
			for start := 0; start < len(rows); start += restoreBatchSize {
				end := min(start+restoreBatchSize, len(rows))
				batch := rows[start:end]
				if err := tx.Table(table).Create(batch).Error; err != nil {
					return fmt.Errorf("restore %s: %w", table, err)
				}
			}
			s.logger.Info("table restored", zap.String("table", table), zap.Int("rows", len(rows)))
		}
		return nil
	})
}

// checkColumns rejects rows carrying columns the live table does not have.
func checkColumns(tx *gorm.DB, table string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	types, err := tx.Migrator().ColumnTypes(table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	known := make(map[string]struct{}, len(types))
	for _, ct := range types {
		known[ct.Name()] = struct{}{}
	}
	for _, row := range rows {
		for col := range row {
			if _, ok := known[col]; !ok {
				return fmt.Errorf("%w: %s has no column %q", errInvalidArchive, table, col)
			}
		}
	}
	return nil
}

func readAll(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func readJSON(f *zip.File, v interface{}) error {
	data, err := readAll(f)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
