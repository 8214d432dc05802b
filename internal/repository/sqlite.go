package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/choiway/loupebox/internal/photo"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS photos (
	id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	size_bytes INTEGER NOT NULL,
	content_hash TEXT NOT NULL,
	capture_date TEXT,
	camera_model TEXT,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_photos_content_hash ON photos (content_hash);
CREATE TABLE IF NOT EXISTS scans (
	id TEXT NOT NULL PRIMARY KEY,
	root TEXT NOT NULL,
	status TEXT NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);`

// SQLite stores the index in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer, and ":memory:" databases live per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// Setup creates the tables and the content hash index. It is safe to call
// on every run.
func (s *SQLite) Setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SQLite) Exists(ctx context.Context, path string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM photos WHERE path = ?);`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check path: %w", err)
	}
	return exists == 1, nil
}

// Add inserts rec and sets rec.ID. Inserting a path twice fails with
// photo.ErrConstraintViolation.
func (s *SQLite) Add(ctx context.Context, rec *photo.Record) error {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO photos(
		path,
		filename,
		size_bytes,
		content_hash,
		capture_date,
		camera_model,
		width,
		height
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Path,
		rec.Filename,
		rec.SizeBytes,
		rec.ContentHash,
		fromPtr(photo.FormatCaptureDate(rec.CaptureDate)),
		fromPtr(rec.CameraModel),
		rec.Width,
		rec.Height,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: path %s already indexed", photo.ErrConstraintViolation, rec.Path)
		}
		return fmt.Errorf("insert photo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	rec.ID = id
	return nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

// DuplicateGroups returns every content hash shared by more than one
// record, largest groups first.
func (s *SQLite) DuplicateGroups(ctx context.Context) ([]photo.DuplicateGroup, error) {
	r, err := s.db.QueryContext(ctx, duplicateGroupsSQL)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer r.Close()
	return collectGroups(r)
}

// Distinct returns the first stored record of every content hash.
func (s *SQLite) Distinct(ctx context.Context) ([]photo.Record, error) {
	r, err := s.db.QueryContext(ctx, distinctSQL)
	if err != nil {
		return nil, fmt.Errorf("query distinct photos: %w", err)
	}
	defer r.Close()
	return collectRecords(r)
}

func (s *SQLite) StartScan(ctx context.Context, scan *photo.ScanSession) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO scans(id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		scan.ID, scan.Root, string(scan.Status), scan.StartedAt)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (s *SQLite) FinishScan(ctx context.Context, scan *photo.ScanSession) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE scans
		SET status = ?,
			processed = ?,
			skipped = ?,
			failed = ?,
			finished_at = ?
		WHERE id = ?`,
		string(scan.Status), scan.Processed, scan.Skipped, scan.Failed, scan.FinishedAt, scan.ID)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	return nil
}
