package wad

import (
	"bytes"
	"fmt"
	"strings"
)

// Header is the fixed 12-byte header of a WAD file.
type Header struct {
	Magic      [4]byte // "WAD2" or "WAD3"
	EntryCount uint32  // number of directory entries
	DirOffset  uint32  // absolute offset of the directory
	FileSize   int     // size of the decoded buffer, not serialized
}

func (h Header) String() string {
	return fmt.Sprintf("Type: %s, Number of Entries: %d, Directory Location: %d",
		h.Magic[:], h.EntryCount, h.DirOffset)
}

// Name is a fixed 16-byte name slot. Normalized names are upper-cased ASCII
// and always end with a NUL in the last byte.
type Name [NameSize]byte

// NewName builds a normalized slot from s. Text beyond 15 bytes is dropped.
func NewName(s string) Name {
	return normalizeName([]byte(s))
}

// String returns the visible text up to the first NUL.
func (n Name) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

// normalizeName copies raw into a slot, forces the last byte to NUL and
// upper-cases ASCII letters. Applied on both decode and encode so that
// round-trips are stable.
func normalizeName(raw []byte) Name {
	var n Name
	copy(n[:], raw)
	n[NameSize-1] = 0
	for i, b := range n {
		if 'a' <= b && b <= 'z' {
			n[i] = b - ('a' - 'A')
		}
	}
	return n
}

// lookupKey maps a user supplied name onto the form stored in an index.
func lookupKey(name string) string {
	return NewName(strings.TrimSpace(name)).String()
}

// DirEntry is one 32-byte directory record.
type DirEntry struct {
	FilePos    uint32 // absolute offset of the texture record
	DiskSize   uint32 // stored size
	FullSize   uint32 // decompressed size
	Type       uint8  // lump type, informational
	Compressed bool
	Name       Name
}

func (e DirEntry) String() string {
	return fmt.Sprintf("File Pos: %d, Disk Size: %d, Full Size: %d, Type: %#x, Compressed: %t, Name: %s",
		e.FilePos, e.DiskSize, e.FullSize, e.Type, e.Compressed, e.Name)
}

// RGB is one palette color.
type RGB struct {
	R, G, B uint8
}

// Palette is the 256-color table indexed by raster bytes.
type Palette [PaletteEntries]RGB

func decodePalette(b []byte) Palette {
	var p Palette
	for i := range p {
		p[i] = RGB{R: b[i*3], G: b[i*3+1], B: b[i*3+2]}
	}
	return p
}

func (p *Palette) bytes() []byte {
	out := make([]byte, PaletteSize)
	for i, c := range p {
		out[i*3] = c.R
		out[i*3+1] = c.G
		out[i*3+2] = c.B
	}
	return out
}
