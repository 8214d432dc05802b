package metadata

import (
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choiway/loupebox/internal/imagetest"
	"github.com/choiway/loupebox/internal/photo"
)

func newFs(t *testing.T, files map[string][]byte) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, data := range files {
		require.NoError(t, afero.WriteFile(mem, name, data, 0o644))
	}
	return mem
}

func TestExtractJPEGWithExif(t *testing.T) {
	jpg := imagetest.WithExif(imagetest.JPEG(32, 24, color.White), "Canon EOS R5", "2021:07:04 10:30:00")
	e := New(newFs(t, map[string][]byte{"/a.jpg": jpg}))

	md, err := e.Extract("/a.jpg")
	require.NoError(t, err)

	assert.Equal(t, 32, md.Width)
	assert.Equal(t, 24, md.Height)
	assert.Equal(t, "image/jpeg", md.MIME)
	require.NotNil(t, md.CaptureDate)
	assert.Equal(t, time.Date(2021, 7, 4, 10, 30, 0, 0, time.UTC), *md.CaptureDate)
	require.NotNil(t, md.CameraModel)
	assert.Equal(t, "Canon EOS R5", *md.CameraModel)
}

func TestExtractWithoutExif(t *testing.T) {
	e := New(newFs(t, map[string][]byte{
		"/plain.jpg": imagetest.JPEG(8, 4, color.Black),
		"/plain.png": imagetest.PNG(5, 7, color.White),
	}))

	md, err := e.Extract("/plain.jpg")
	require.NoError(t, err)
	assert.Equal(t, 8, md.Width)
	assert.Equal(t, 4, md.Height)
	assert.Nil(t, md.CaptureDate)
	assert.Nil(t, md.CameraModel)

	md, err = e.Extract("/plain.png")
	require.NoError(t, err)
	assert.Equal(t, 5, md.Width)
	assert.Equal(t, 7, md.Height)
	assert.Nil(t, md.CaptureDate)
}

func TestExtractMalformedDateIsAbsent(t *testing.T) {
	jpg := imagetest.WithExif(imagetest.JPEG(4, 4, color.White), "Pixel 7", "2021-07-04 10:30:00")
	e := New(newFs(t, map[string][]byte{"/a.jpg": jpg}))

	md, err := e.Extract("/a.jpg")
	require.NoError(t, err)
	assert.Nil(t, md.CaptureDate)
	require.NotNil(t, md.CameraModel)
	assert.Equal(t, "Pixel 7", *md.CameraModel)
}

func TestExtractDateOnly(t *testing.T) {
	jpg := imagetest.WithExif(imagetest.JPEG(4, 4, color.White), "", "1999:12:31 23:59:59")
	e := New(newFs(t, map[string][]byte{"/a.jpg": jpg}))

	md, err := e.Extract("/a.jpg")
	require.NoError(t, err)
	require.NotNil(t, md.CaptureDate)
	assert.Equal(t, 1999, md.CaptureDate.Year())
	assert.Nil(t, md.CameraModel)
}

func TestExtractUnreadable(t *testing.T) {
	good := imagetest.JPEG(16, 16, color.White)
	e := New(newFs(t, map[string][]byte{
		"/text.jpg":      []byte("this is not an image at all"),
		"/truncated.jpg": good[:20],
	}))

	for _, p := range []string{"/text.jpg", "/truncated.jpg"} {
		_, err := e.Extract(p)
		assert.Truef(t, errors.Is(err, photo.ErrUnreadableImage), "%s: %v", p, err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).Extract("/gone.jpg")
	assert.True(t, errors.Is(err, photo.ErrIO))
	assert.False(t, errors.Is(err, photo.ErrUnreadableImage))
}

func TestParseCaptureDate(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"2020:01:02 03:04:05", true},
		{"2020:01:02 03:04:05\x00", true},
		{" 2020:01:02 03:04:05 ", true},
		{"2020-01-02T03:04:05", false},
		{"0000:00:00 00:00:00", false},
		{"", false},
	}
	for _, tt := range tests {
		_, ok := ParseCaptureDate(tt.raw)
		assert.Equalf(t, tt.ok, ok, "%q", tt.raw)
	}
}
