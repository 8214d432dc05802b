// Package imagetest builds small image fixtures for tests.
package imagetest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// JPEG encodes a w x h image filled with c.
func JPEG(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h, c), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG encodes a w x h image filled with c.
func PNG(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h, c)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WithExif inserts an APP1 segment carrying Model and DateTimeOriginal right
// after the SOI marker of a JPEG. Empty values are left out.
func WithExif(jpg []byte, model, taken string) []byte {
	tiff := exifTIFF(model, taken)

	var seg bytes.Buffer
	seg.Write([]byte{0xFF, 0xE1})
	binary.Write(&seg, binary.BigEndian, uint16(2+6+len(tiff)))
	seg.WriteString("Exif\x00\x00")
	seg.Write(tiff)

	out := make([]byte, 0, len(jpg)+seg.Len())
	out = append(out, jpg[:2]...)
	out = append(out, seg.Bytes()...)
	return append(out, jpg[2:]...)
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

const (
	tagModel            = 0x0110
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003
	typeASCII           = 2
	typeLong            = 4
)

func ascii(tag uint16, s string) ifdEntry {
	v := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(v)), value: v}
}

// exifTIFF lays out a little-endian TIFF with IFD0, an optional Exif
// sub-IFD, and a trailing data area for values wider than four bytes.
func exifTIFF(model, taken string) []byte {
	le := binary.LittleEndian

	var sub []ifdEntry
	if taken != "" {
		sub = append(sub, ascii(tagDateTimeOriginal, taken))
	}
	var ifd0 []ifdEntry
	if model != "" {
		ifd0 = append(ifd0, ascii(tagModel, model))
	}

	ifdSize := func(n int) int { return 2 + 12*n + 4 }
	ifd0Off := 8
	n0 := len(ifd0)
	if len(sub) > 0 {
		n0++
	}
	subOff := ifd0Off + ifdSize(n0)
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += ifdSize(len(sub))
		v := make([]byte, 4)
		le.PutUint32(v, uint32(subOff))
		ifd0 = append(ifd0, ifdEntry{tag: tagExifIFDPointer, typ: typeLong, count: 1, value: v})
	}

	var head, data bytes.Buffer
	head.Write([]byte{'I', 'I', 0x2A, 0x00})
	binary.Write(&head, le, uint32(ifd0Off))

	writeIFD := func(entries []ifdEntry) {
		binary.Write(&head, le, uint16(len(entries)))
		for _, e := range entries {
			binary.Write(&head, le, e.tag)
			binary.Write(&head, le, e.typ)
			binary.Write(&head, le, e.count)
			if len(e.value) <= 4 {
				v := make([]byte, 4)
				copy(v, e.value)
				head.Write(v)
				continue
			}
			binary.Write(&head, le, uint32(dataOff+data.Len()))
			data.Write(e.value)
		}
		binary.Write(&head, le, uint32(0))
	}

	writeIFD(ifd0)
	if len(sub) > 0 {
		writeIFD(sub)
	}
	return append(head.Bytes(), data.Bytes()...)
}
