package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/choiway/loupebox/internal/photo"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS photos (
	id BIGSERIAL PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	content_hash TEXT NOT NULL,
	capture_date TEXT,
	camera_model TEXT,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_photos_content_hash ON photos (content_hash);
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	root TEXT NOT NULL,
	status TEXT NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);`

const uniqueViolation = "23505"

// Postgres stores the index in a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using a libpq style DSN or URL.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	// single writer
	cfg.MaxConns = 2

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Setup(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM photos WHERE path = $1)`, path).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check path: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Add(ctx context.Context, rec *photo.Record) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO photos (path, filename, size_bytes, content_hash, capture_date, camera_model, width, height)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, rec.Path, rec.Filename, rec.SizeBytes, rec.ContentHash,
		fromPtr(photo.FormatCaptureDate(rec.CaptureDate)), fromPtr(rec.CameraModel),
		rec.Width, rec.Height).Scan(&rec.ID)
	if err != nil {
		var state interface{ SQLState() string }
		if errors.As(err, &state) && state.SQLState() == uniqueViolation {
			return fmt.Errorf("%w: path %s already indexed", photo.ErrConstraintViolation, rec.Path)
		}
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM photos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count photos: %w", err)
	}
	return n, nil
}

func (p *Postgres) DuplicateGroups(ctx context.Context) ([]photo.DuplicateGroup, error) {
	r, err := p.pool.Query(ctx, duplicateGroupsSQL)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	defer r.Close()
	return collectGroups(r)
}

func (p *Postgres) Distinct(ctx context.Context) ([]photo.Record, error) {
	r, err := p.pool.Query(ctx, distinctSQL)
	if err != nil {
		return nil, fmt.Errorf("query distinct photos: %w", err)
	}
	defer r.Close()
	return collectRecords(r)
}

func (p *Postgres) StartScan(ctx context.Context, scan *photo.ScanSession) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO scans (id, root, status, started_at) VALUES ($1,$2,$3,$4)
	`, scan.ID, scan.Root, string(scan.Status), scan.StartedAt)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

func (p *Postgres) FinishScan(ctx context.Context, scan *photo.ScanSession) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE scans
		SET status=$1, processed=$2, skipped=$3, failed=$4, finished_at=$5
		WHERE id=$6
	`, string(scan.Status), scan.Processed, scan.Skipped, scan.Failed, scan.FinishedAt, scan.ID)
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	return nil
}
