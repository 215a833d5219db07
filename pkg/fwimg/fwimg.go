// Package fwimg identifies IMG3 and IMG4 firmware containers from their leading bytes.
package fwimg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrFileNotFound is returned when the path is missing or not a regular file
	ErrFileNotFound = errors.New("file not found")
	// ErrTruncatedHeader is returned when a magic matched but the type tag could not be read
	ErrTruncatedHeader = errors.New("truncated image header")
)

// Format is the container format of a firmware image
type Format int

const (
	Unknown Format = iota
	IMG3
	IMG4
)

func (f Format) String() string {
	switch f {
	case IMG3:
		return "img3"
	case IMG4:
		return "img4"
	default:
		return "unknown"
	}
}

func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// Header is the result of inspecting an image file
type Header struct {
	Format Format `json:"format"`
	Type   string `json:"type,omitempty"` // 4cc e.g. illb, krnl, ibot
}

// IsImage returns true if the header matched a known container
func (h Header) IsImage() bool {
	return h.Format != Unknown
}

func (h Header) String() string {
	if !h.IsImage() {
		return h.Format.String()
	}
	return fmt.Sprintf("%s (%s)", h.Format, h.Type)
}

type layout struct {
	format      Format
	magicOffset int64
	magic       []byte
	tagOffset   int64
	transform   func([]byte) []byte
}

// IMG3 stores the magic and the type 4cc little-endian, IM4P stores them as-is.
// Entries are checked in order.
var layouts = []layout{
	{
		format:      IMG3,
		magicOffset: 0,
		magic:       []byte("3gmI"),
		tagOffset:   16, // 4 byte magic + 12 bytes of sizes
		transform:   reverseBytes,
	},
	{
		format:      IMG4,
		magicOffset: 7,
		magic:       []byte("IM4P"),
		tagOffset:   13, // IM4P + 2 byte IA5String tag/len
		transform:   identity,
	},
}

// DetectFile inspects the header of the file at path
func DetectFile(path string) (*Header, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	hdr, err := Detect(f)
	if err != nil {
		return nil, fmt.Errorf("failed to detect format of %s: %w", path, err)
	}

	return hdr, nil
}

// Detect classifies the image read from r.
// A header that matches neither magic is not an error; it returns a Header with Format Unknown.
func Detect(r io.ReadSeeker) (*Header, error) {
	for _, l := range layouts {
		ok, err := matchMagic(r, l)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var tag [4]byte
		if _, err := r.Seek(l.tagOffset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek to %s type tag: %w", l.format, err)
		}
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%s type tag: %w", l.format, ErrTruncatedHeader)
			}
			return nil, fmt.Errorf("failed to read %s type tag: %w", l.format, err)
		}

		return &Header{
			Format: l.format,
			Type:   string(l.transform(tag[:])),
		}, nil
	}

	return &Header{Format: Unknown}, nil
}

func matchMagic(r io.ReadSeeker, l layout) (bool, error) {
	if _, err := r.Seek(l.magicOffset, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to seek to %s magic: %w", l.format, err)
	}
	magic := make([]byte, len(l.magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil // too short to be this format
		}
		return false, fmt.Errorf("failed to read %s magic: %w", l.format, err)
	}
	return bytes.Equal(magic, l.magic), nil
}

// outputRules are tried in order, the first substring found is replaced
var outputRules = []string{"im4p", "dfu", "img3"}

// OutputPath derives the decrypted output path from the input path.
//
// NOTE: if none of the rules match the input path is returned unchanged.
func OutputPath(path string) string {
	for _, old := range outputRules {
		if strings.Contains(path, old) {
			return strings.ReplaceAll(path, old, "bin")
		}
	}
	return path
}

func reverseBytes(a []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[len(a)-1-i] = a[i]
	}
	return out
}

func identity(a []byte) []byte {
	return a
}
