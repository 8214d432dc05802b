// Package archive uploads one copy of every distinct photo to object
// storage. Objects are keyed by capture date and a short content hash, so
// re-running an archive only uploads what is missing.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/choiway/loupebox/internal/photo"
)

// ObjectStore is the subset of an S3 client the archiver uses.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Source lists the records to archive.
type Source interface {
	Distinct(ctx context.Context) ([]photo.Record, error)
}

type Result struct {
	Uploaded int
	Existing int
	Failed   int
}

type Archiver struct {
	store  ObjectStore
	fs     afero.Fs
	logger *slog.Logger
}

func New(store ObjectStore, fs afero.Fs, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{store: store, fs: fs, logger: logger}
}

// Run uploads every record src returns whose key is not in the store yet.
// Files that vanished or cannot be read are counted as failed; store errors
// stop the run.
func (a *Archiver) Run(ctx context.Context, src Source) (*Result, error) {
	recs, err := src.Distinct(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		key := ObjectKey(rec)
		exists, err := a.store.Exists(ctx, key)
		if err != nil {
			return res, err
		}
		if exists {
			res.Existing++
			continue
		}

		if err := a.upload(ctx, key, rec); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			a.logger.Error("archive failed", "path", rec.Path, "key", key, "err", err)
			res.Failed++
			continue
		}
		a.logger.Info("archived photo", "path", rec.Path, "key", key)
		res.Uploaded++
	}
	return res, nil
}

func (a *Archiver) upload(ctx context.Context, key string, rec photo.Record) error {
	f, err := a.fs.Open(rec.Path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", photo.ErrIO, rec.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", photo.ErrIO, rec.Path, err)
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", photo.ErrIO, rec.Path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek %s: %w", photo.ErrIO, rec.Path, err)
	}

	return a.store.Put(ctx, key, f, info.Size(), mtype.String())
}

// ObjectKey places a record under YYYY/MM/DD of its capture date, or under
// "undated", and appends the first six hash characters to the file name.
// For example IMG_0493.jpg taken on 2007-03-09 becomes
// 2007/03/09/IMG_0493_1a2b3c.jpg.
func ObjectKey(rec photo.Record) string {
	dir := "undated"
	if rec.CaptureDate != nil {
		dir = rec.CaptureDate.Format("2006/01/02")
	}
	return path.Join(dir, fileName(rec.Filename, rec.ContentHash))
}

func fileName(filename, sha string) string {
	ext := filepath.Ext(filename)
	n := strings.TrimSuffix(filename, ext)
	short := sha
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("%s_%s%s", n, short, ext)
}
