package wad

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// cursor is a bounds-checked view over a byte buffer. Reads and writes never
// panic; regions that do not fit return a *BoundsError.
type cursor struct {
	buf []byte
}

// span returns buf[off:off+n] after checking it fits.
func span[O, N constraints.Integer](buf []byte, off O, n N) ([]byte, error) {
	o, l := int64(off), int64(n)
	if o < 0 || l < 0 || o > int64(len(buf)) || l > int64(len(buf))-o {
		return nil, &BoundsError{Offset: o, Length: l, Size: len(buf)}
	}
	return buf[o : o+l], nil
}

func (c cursor) bytes(off int64, n int64) ([]byte, error) {
	return span(c.buf, off, n)
}

func (c cursor) uint32At(off int64) (uint32, error) {
	b, err := span(c.buf, off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c cursor) putUint32(off int64, v uint32) error {
	b, err := span(c.buf, off, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (c cursor) putBytes(off int64, src []byte) error {
	b, err := span(c.buf, off, len(src))
	if err != nil {
		return err
	}
	copy(b, src)
	return nil
}

// fitsUint32 reports whether v can be stored in a uint32 field.
func fitsUint32[T constraints.Integer](v T) bool {
	return v >= 0 && uint64(v) <= math.MaxUint32
}
