// Package photo holds the records shared by the scanner, the repository and
// the commands.
package photo

import "time"

// CaptureLayout is the EXIF timestamp format, e.g. "2021:07:04 10:30:00".
const CaptureLayout = "2006:01:02 15:04:05"

// StoredDateLayout is how capture dates are written to the store.
const StoredDateLayout = "2006-01-02T15:04:05"

// Record is one indexed file. Records are inserted once and never updated.
type Record struct {
	ID          int64
	Path        string
	Filename    string
	SizeBytes   int64
	ContentHash string
	CaptureDate *time.Time
	CameraModel *string
	Width       int
	Height      int
}

// DuplicateGroup lists every stored path sharing one content hash.
type DuplicateGroup struct {
	Hash  string
	Count int
	Paths []string
}

// ScanStatus is the lifecycle state of a scan session.
type ScanStatus string

const (
	ScanStarted   ScanStatus = "started"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanSession tracks one pass over a directory tree.
type ScanSession struct {
	ID         string
	Root       string
	Status     ScanStatus
	Processed  int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// FormatCaptureDate returns the stored form of d, or nil when d is absent.
func FormatCaptureDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(StoredDateLayout)
	return &s
}

// ParseCaptureDate is the inverse of FormatCaptureDate. Values that do not
// parse are treated as absent.
func ParseCaptureDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(StoredDateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}
