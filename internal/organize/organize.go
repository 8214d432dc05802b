// Package organize moves photos into per-label folders from a results file.
//
// The results file has a header line followed by "filename;label" rows, as
// written by the race-number recognizer:
//
//	filename;car_number
//	IMG_0001.jpg;42
//	IMG_0002.jpg;NONE
//
// Rows labelled ERROR or NONE are left where they are.
package organize

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/choiway/loupebox/internal/photo"
)

// FolderPrefix is prepended to each label to name its folder.
const FolderPrefix = "car_"

var ignoredLabels = map[string]bool{
	"ERROR": true,
	"NONE":  true,
}

// Result counts what a Sort did.
type Result struct {
	Moved   int
	Missing int
	Failed  int
}

// ReadResults parses a results file into label -> file names. Malformed
// rows are ignored.
func ReadResults(r io.Reader) (map[string][]string, error) {
	byLabel := make(map[string][]string)

	sc := bufio.NewScanner(r)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		parts := strings.Split(strings.TrimSpace(sc.Text()), ";")
		if len(parts) != 2 {
			continue
		}
		name, label := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if name == "" || !validLabel(label) {
			continue
		}
		byLabel[label] = append(byLabel[label], name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return byLabel, nil
}

// validLabel rejects ignored markers and labels that would escape their
// car_ folder.
func validLabel(label string) bool {
	if label == "" || ignoredLabels[label] {
		return false
	}
	return !strings.ContainsAny(label, `/\`) && !strings.Contains(label, "..")
}

// Sorter moves files inside one photos directory.
type Sorter struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewSorter returns a Sorter working on fs. A nil logger uses slog.Default.
func NewSorter(fs afero.Fs, logger *slog.Logger) *Sorter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sorter{fs: fs, logger: logger}
}

// Sort reads resultsPath and moves each listed file from photosDir into
// photosDir/car_<label>/. Missing files are logged and counted.
func (s *Sorter) Sort(resultsPath, photosDir string) (*Result, error) {
	info, err := s.fs.Stat(photosDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", photo.ErrNotADirectory, photosDir)
	}

	f, err := s.fs.Open(resultsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open results %s: %w", photo.ErrIO, resultsPath, err)
	}
	byLabel, err := ReadResults(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	res := &Result{}
	for _, label := range labels {
		folder := filepath.Join(photosDir, FolderPrefix+label)
		if err := s.fs.MkdirAll(folder, 0o755); err != nil {
			return res, fmt.Errorf("create %s: %w", folder, err)
		}

		for _, name := range byLabel[label] {
			src := filepath.Join(photosDir, filepath.Base(name))
			dst := filepath.Join(folder, filepath.Base(name))

			if _, err := s.fs.Stat(src); err != nil {
				s.logger.Warn("file not found", "file", name)
				res.Missing++
				continue
			}
			if err := s.fs.Rename(src, dst); err != nil {
				s.logger.Error("cannot move file", "file", name, "err", err)
				res.Failed++
				continue
			}
			s.logger.Info("moved photo", "file", name, "folder", folder)
			res.Moved++
		}
	}
	return res, nil
}
