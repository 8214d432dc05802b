// Package hasher computes content digests for files.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/choiway/loupebox/internal/photo"
)

const chunkSize = 4096

// Hasher streams files through SHA-256.
type Hasher struct {
	fs afero.Fs
}

// New returns a Hasher reading from fs.
func New(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs}
}

// Hash returns the hex SHA-256 digest of the file at path. The file is read
// in fixed-size chunks.
func (h *Hasher) Hash(path string) (string, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", photo.ErrIO, path, err)
	}
	defer f.Close()

	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", photo.ErrIO, path, err)
	}
	return sum, nil
}

// Reader hashes everything r yields.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.CopyBuffer(h, r, make([]byte, chunkSize)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
