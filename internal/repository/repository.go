// Package repository persists photo records and answers duplicate queries.
// SQLite is the default backend; PostgreSQL is available for libraries
// shared across machines.
package repository

import (
	"context"
	"fmt"

	"github.com/choiway/loupebox/internal/config"
	"github.com/choiway/loupebox/internal/photo"
)

// Repository is implemented by every backend.
type Repository interface {
	Setup(ctx context.Context) error
	Exists(ctx context.Context, path string) (bool, error)
	Add(ctx context.Context, rec *photo.Record) error
	Count(ctx context.Context) (int, error)
	DuplicateGroups(ctx context.Context) ([]photo.DuplicateGroup, error)
	Distinct(ctx context.Context) ([]photo.Record, error)
	StartScan(ctx context.Context, s *photo.ScanSession) error
	FinishScan(ctx context.Context, s *photo.ScanSession) error
	Close() error
}

// Open connects to the backend named by cfg.Driver. The caller owns the
// returned handle and must Close it.
func Open(ctx context.Context, cfg config.Database) (Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Both backends share the grouping query. Groups with more members come
// first; ties are broken by hash so the report is stable between runs.
const duplicateGroupsSQL = `
SELECT p.content_hash, d.n, p.path
FROM photos p
JOIN (
	SELECT content_hash, COUNT(*) AS n
	FROM photos
	GROUP BY content_hash
	HAVING COUNT(*) > 1
) d ON d.content_hash = p.content_hash
ORDER BY d.n DESC, p.content_hash ASC, p.id ASC`

const distinctSQL = `
SELECT id, path, filename, size_bytes, content_hash, capture_date, camera_model, width, height
FROM photos
WHERE id IN (SELECT MIN(id) FROM photos GROUP BY content_hash)
ORDER BY id`

type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectGroups(r rows) ([]photo.DuplicateGroup, error) {
	var groups []photo.DuplicateGroup
	for r.Next() {
		var (
			hash, path string
			count      int
		)
		if err := r.Scan(&hash, &count, &path); err != nil {
			return nil, fmt.Errorf("scan duplicate row: %w", err)
		}
		if n := len(groups); n == 0 || groups[n-1].Hash != hash {
			groups = append(groups, photo.DuplicateGroup{
				Hash:  hash,
				Count: count,
				Paths: make([]string, 0, count),
			})
		}
		last := &groups[len(groups)-1]
		last.Paths = append(last.Paths, path)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read duplicate rows: %w", err)
	}
	return groups, nil
}

func collectRecords(r rows) ([]photo.Record, error) {
	var out []photo.Record
	for r.Next() {
		var (
			rec         photo.Record
			captureDate nullString
			cameraModel nullString
		)
		if err := r.Scan(&rec.ID, &rec.Path, &rec.Filename, &rec.SizeBytes, &rec.ContentHash,
			&captureDate.NullString, &cameraModel.NullString, &rec.Width, &rec.Height); err != nil {
			return nil, fmt.Errorf("scan photo row: %w", err)
		}
		rec.CaptureDate = photo.ParseCaptureDate(captureDate.ptr())
		rec.CameraModel = cameraModel.ptr()
		out = append(out, rec)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read photo rows: %w", err)
	}
	return out, nil
}
