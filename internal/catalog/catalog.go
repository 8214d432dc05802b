// Package catalog drives a scan pass: walk a tree, index files that are not
// in the store yet, and report exact duplicates.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/choiway/loupebox/internal/hasher"
	"github.com/choiway/loupebox/internal/metadata"
	"github.com/choiway/loupebox/internal/photo"
	"github.com/choiway/loupebox/internal/scanner"
)

// Store is the part of the repository a Catalog needs.
type Store interface {
	Setup(ctx context.Context) error
	Exists(ctx context.Context, path string) (bool, error)
	Add(ctx context.Context, rec *photo.Record) error
	DuplicateGroups(ctx context.Context) ([]photo.DuplicateGroup, error)
	StartScan(ctx context.Context, s *photo.ScanSession) error
	FinishScan(ctx context.Context, s *photo.ScanSession) error
}

// Catalog owns no resources itself; the caller opens and closes the store.
type Catalog struct {
	store     Store
	fs        afero.Fs
	scanner   *scanner.Scanner
	extractor *metadata.Extractor
	hasher    *hasher.Hasher
	logger    *slog.Logger
	out       io.Writer
	exts      []string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger shared by the scanner and extractor.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOutput sets where duplicate reports are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Catalog) {
		if w != nil {
			c.out = w
		}
	}
}

// WithExtensions sets which file extensions are treated as images.
func WithExtensions(exts ...string) Option {
	return func(c *Catalog) {
		c.exts = exts
	}
}

// New builds a Catalog reading files from fs and writing to store.
func New(store Store, fs afero.Fs, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		fs:     fs,
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scanner = scanner.New(fs, scanner.WithExtensions(c.exts...), scanner.WithLogger(c.logger))
	c.extractor = metadata.New(fs, metadata.WithLogger(c.logger))
	c.hasher = hasher.New(fs)
	return c
}

type outcome int

const (
	processed outcome = iota
	skipped
	failed
)

// Scan indexes every new image under root and returns the finished session.
// Files that cannot be read or decoded are logged and counted as failed;
// only store errors and cancellation stop the pass.
func (c *Catalog) Scan(ctx context.Context, root string) (*photo.ScanSession, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if err := c.store.Setup(ctx); err != nil {
		return nil, err
	}
	paths, err := c.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	session := &photo.ScanSession{
		ID:        uuid.NewString(),
		Root:      root,
		Status:    photo.ScanStarted,
		StartedAt: time.Now().UTC(),
	}
	if err := c.store.StartScan(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("scanning directory", "root", root, "scan", session.ID)

	var runErr error
	for path, walkErr := range paths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if walkErr != nil {
			c.logger.Warn("cannot read directory", "err", walkErr)
			session.Failed++
			continue
		}

		result, err := c.index(ctx, path)
		if err != nil {
			runErr = err
			break
		}
		switch result {
		case processed:
			session.Processed++
		case skipped:
			session.Skipped++
		case failed:
			session.Failed++
		}
	}

	finished := time.Now().UTC()
	session.FinishedAt = &finished
	session.Status = photo.ScanCompleted
	if runErr != nil {
		session.Status = photo.ScanFailed
	}
	// record the outcome even when ctx was cancelled
	if err := c.store.FinishScan(context.WithoutCancel(ctx), session); err != nil {
		return session, errors.Join(runErr, err)
	}

	c.logger.Info("scan finished",
		"scan", session.ID,
		"status", session.Status,
		"added", session.Processed,
		"skipped", session.Skipped,
		"failed", session.Failed,
	)
	return session, runErr
}

func (c *Catalog) index(ctx context.Context, path string) (outcome, error) {
	resolved, err := c.resolve(path)
	if err != nil {
		c.logger.Error("cannot resolve path", "path", path, "err", err)
		return failed, nil
	}
	path = resolved

	exists, err := c.store.Exists(ctx, path)
	if err != nil {
		return failed, err
	}
	if exists {
		c.logger.Debug("already indexed", "path", path)
		return skipped, nil
	}

	c.logger.Info("processing image", "file", filepath.Base(path))
	rec, err := c.Record(path)
	if err != nil {
		c.logger.Error("cannot process image", "path", path, "err", err)
		return failed, nil
	}

	if err := c.store.Add(ctx, rec); err != nil {
		if errors.Is(err, photo.ErrConstraintViolation) {
			c.logger.Warn("path indexed concurrently", "path", path)
			return skipped, nil
		}
		return failed, err
	}
	return processed, nil
}

// resolve returns the canonical path of a file so one file reached through
// a symlink and through its real path is indexed once. Symlinks only exist
// on the OS filesystem; other filesystems get the cleaned path.
func (c *Catalog) resolve(path string) (string, error) {
	if _, ok := c.fs.(*afero.OsFs); !ok {
		return filepath.Clean(path), nil
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", photo.ErrIO, path, err)
	}
	return resolved, nil
}

// Record builds the record for one file without storing it. Path holds the
// resolved path.
func (c *Catalog) Record(path string) (*photo.Record, error) {
	path, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", photo.ErrIO, path, err)
	}
	md, err := c.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	sum, err := c.hasher.Hash(path)
	if err != nil {
		return nil, err
	}
	return &photo.Record{
		Path:        path,
		Filename:    filepath.Base(path),
		SizeBytes:   info.Size(),
		ContentHash: sum,
		CaptureDate: md.CaptureDate,
		CameraModel: md.CameraModel,
		Width:       md.Width,
		Height:      md.Height,
	}, nil
}

// Plan lists the images under root that a scan would index, without
// reading them or writing records.
func (c *Catalog) Plan(ctx context.Context, root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if err := c.store.Setup(ctx); err != nil {
		return nil, err
	}
	paths, err := c.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	var pending []string
	seen := make(map[string]bool)
	for path, walkErr := range paths {
		if walkErr != nil {
			c.logger.Warn("cannot read directory", "err", walkErr)
			continue
		}
		path, err := c.resolve(path)
		if err != nil {
			c.logger.Warn("cannot resolve path", "err", err)
			continue
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		exists, err := c.store.Exists(ctx, path)
		if err != nil {
			return nil, err
		}
		if !exists {
			pending = append(pending, path)
		}
	}
	return pending, nil
}

// ReportDuplicates prints every duplicate group and returns them.
func (c *Catalog) ReportDuplicates(ctx context.Context) ([]photo.DuplicateGroup, error) {
	if err := c.store.Setup(ctx); err != nil {
		return nil, err
	}
	groups, err := c.store.DuplicateGroups(ctx)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		c.logger.Info("no exact duplicates found")
		return groups, nil
	}

	c.logger.Warn("duplicate groups found", "groups", len(groups))
	for i, g := range groups {
		fmt.Fprintf(c.out, "\nGroup %d (hash: %s..., %d copies):\n", i+1, shortHash(g.Hash), g.Count)
		for _, p := range g.Paths {
			fmt.Fprintf(c.out, "  - %s\n", p)
		}
	}
	return groups, nil
}

func shortHash(h string) string {
	if len(h) > 10 {
		return h[:10]
	}
	return h
}
