// Package scanner walks directory trees looking for image files.
package scanner

import (
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/choiway/loupebox/internal/photo"
)

// DefaultExtensions are matched when no extension set is configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// Scanner yields paths of files whose extension is in its extension set.
// It follows symlinked directories.
type Scanner struct {
	fs     afero.Fs
	exts   map[string]struct{}
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtensions replaces the extension set. Extensions are matched
// case-insensitively and may be given with or without the leading dot.
func WithExtensions(exts ...string) Option {
	return func(s *Scanner) {
		if len(exts) == 0 {
			return
		}
		s.exts = extensionSet(exts)
	}
}

// WithLogger sets the logger used for skipped entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Scanner over fs.
func New(fs afero.Fs, opts ...Option) *Scanner {
	s := &Scanner{
		fs:     fs,
		exts:   extensionSet(DefaultExtensions),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match reports whether path has one of the configured extensions.
func (s *Scanner) Match(path string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Scan checks that root is a directory and returns a lazy sequence of
// matching file paths beneath it. Nothing is read until the sequence is
// ranged over, and every range performs a fresh traversal. Directories that
// cannot be listed are reported through the error half of the pair and the
// walk carries on.
func (s *Scanner) Scan(root string) (iter.Seq2[string, error], error) {
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", photo.ErrNotADirectory, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", photo.ErrNotADirectory, root)
	}

	return func(yield func(string, error) bool) {
		s.logger.Debug("scan started", "root", root)
		if s.walk(root, []os.FileInfo{info}, yield) {
			s.logger.Debug("scan finished", "root", root)
		}
	}, nil
}

// walk visits dir and returns false once the consumer has stopped.
// ancestors holds the directories on the current path and guards against
// symlink loops.
func (s *Scanner) walk(dir string, ancestors []os.FileInfo, yield func(string, error) bool) bool {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return yield("", fmt.Errorf("read dir %s: %w", dir, err))
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.Mode()&fs.ModeSymlink != 0 {
			target, err := s.fs.Stat(path)
			if err != nil {
				s.logger.Debug("skipping broken symlink", "path", path, "err", err)
				continue
			}
			entry = target
		}

		if entry.IsDir() {
			if loops(ancestors, entry) {
				s.logger.Debug("skipping symlink loop", "path", path)
				continue
			}
			if !s.walk(path, append(ancestors, entry), yield) {
				return false
			}
			continue
		}

		if !entry.Mode().IsRegular() || !s.Match(path) {
			continue
		}
		if !yield(path, nil) {
			return false
		}
	}
	return true
}

func loops(ancestors []os.FileInfo, dir os.FileInfo) bool {
	for _, a := range ancestors {
		if os.SameFile(a, dir) {
			return true
		}
	}
	return false
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
