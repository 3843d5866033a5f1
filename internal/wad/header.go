package wad

import (
	"encoding/binary"
	"fmt"
)

// DecodeHeader reads the 12-byte header at offset 0 and validates its magic.
func DecodeHeader(buf []byte) (Header, error) {
	b, err := span(buf, 0, HeaderSize)
	if err != nil {
		return Header{}, fmt.Errorf("failed to read header: %w", err)
	}

	var h Header
	copy(h.Magic[:], b[0:4])
	if !validMagic(h.Magic) {
		return Header{}, fmt.Errorf("%w: invalid magic: expected %q or %q, got %q",
			ErrFormat, MagicWAD2, MagicWAD3, h.Magic)
	}

	h.EntryCount = binary.LittleEndian.Uint32(b[4:8])
	h.DirOffset = binary.LittleEndian.Uint32(b[8:12])
	h.FileSize = len(buf)

	return h, nil
}

// Encode packs the header into its 12-byte on-disk form.
func (h Header) Encode() []byte {
	out := make([]byte, HeaderSize)
	copy(out[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(out[4:8], h.EntryCount)
	binary.LittleEndian.PutUint32(out[8:12], h.DirOffset)
	return out
}
