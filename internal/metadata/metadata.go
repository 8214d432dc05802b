// Package metadata reads pixel dimensions and EXIF capture details from
// image files.
package metadata

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/choiway/loupebox/internal/photo"
)

var registerParsers sync.Once

// Metadata is what an Extractor learns about one image. Optional fields are
// nil when the file does not carry them.
type Metadata struct {
	MIME        string
	Width       int
	Height      int
	CaptureDate *time.Time
	CameraModel *string
}

// Extractor opens images through an afero filesystem.
type Extractor struct {
	fs     afero.Fs
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for unreadable EXIF.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Extractor reading from fs.
func New(fs afero.Fs, opts ...Option) *Extractor {
	// Nikon and Canon makernotes
	registerParsers.Do(func() {
		exif.RegisterParsers(mknote.All...)
	})

	e := &Extractor{fs: fs, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract decodes the image header at path. It fails with
// photo.ErrUnreadableImage only when the file is not an image at all;
// missing or malformed EXIF leaves the optional fields nil.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", photo.ErrIO, path, err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", photo.ErrIO, path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s is %s", photo.ErrUnreadableImage, path, mtype.String())
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek %s: %w", photo.ErrIO, path, err)
	}
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", photo.ErrUnreadableImage, path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s has %dx%d pixels", photo.ErrUnreadableImage, path, cfg.Width, cfg.Height)
	}

	md := &Metadata{
		MIME:   mtype.String(),
		Width:  cfg.Width,
		Height: cfg.Height,
	}
	e.logger.Debug("decoded image header", "path", path, "format", format, "width", md.Width, "height", md.Height)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek %s: %w", photo.ErrIO, path, err)
	}
	e.readExif(f, path, md)

	return md, nil
}

func (e *Extractor) readExif(r io.Reader, path string, md *Metadata) {
	// goexif can panic on corrupt makernotes
	defer func() {
		if p := recover(); p != nil {
			e.logger.Warn("exif decode panicked", "path", path, "panic", p)
		}
	}()

	x, err := exif.Decode(r)
	if err != nil {
		e.logger.Debug("no exif data", "path", path, "err", err)
		return
	}

	if tag, err := x.Get(exif.DateTimeOriginal); err == nil {
		if raw, err := tag.StringVal(); err == nil {
			if t, ok := ParseCaptureDate(raw); ok {
				md.CaptureDate = &t
			} else {
				e.logger.Debug("ignoring malformed capture date", "path", path, "value", raw)
			}
		}
	}

	if tag, err := x.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			model = strings.TrimSpace(model)
			if model != "" {
				md.CameraModel = &model
			}
		}
	}
}

// ParseCaptureDate parses an EXIF timestamp. Anything not in the
// "YYYY:MM:DD HH:MM:SS" form is rejected.
func ParseCaptureDate(raw string) (time.Time, bool) {
	t, err := time.Parse(photo.CaptureLayout, strings.TrimSpace(strings.TrimRight(raw, "\x00")))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
