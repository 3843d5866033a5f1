package wad

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive decoding and encoding. Use errors.Is in callers.
var (
	// ErrFormat means a fixed record is malformed (bad magic, bad geometry).
	ErrFormat = errors.New("invalid WAD format")
	// ErrBounds means a computed read or write region exceeds the buffer.
	ErrBounds = errors.New("region out of bounds")
	// ErrUnsupported means the lump uses a feature this package does not decode.
	ErrUnsupported = errors.New("unsupported WAD feature")
	// ErrMipLevel means a mip level outside 0..3 was requested.
	ErrMipLevel = errors.New("mip level out of range")
	// ErrDuplicateName means an added texture collides with an existing name.
	ErrDuplicateName = errors.New("duplicate texture name")
	// ErrNotFound means no entry carries the requested name.
	ErrNotFound = errors.New("texture not found")
	// ErrMismatchedParts means directory and texture sequences differ in length.
	ErrMismatchedParts = errors.New("directory and textures differ in length")
)

// BoundsError describes a region that does not fit in its buffer.
type BoundsError struct {
	Offset int64
	Length int64
	Size   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%v: [%d, %d) exceeds buffer of %d bytes",
		ErrBounds, e.Offset, e.Offset+e.Length, e.Size)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }
