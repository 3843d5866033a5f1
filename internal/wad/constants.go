package wad

import "fmt"

// Magic tags identifying valid archives.
var (
	MagicWAD2 = [4]byte{'W', 'A', 'D', '2'}
	MagicWAD3 = [4]byte{'W', 'A', 'D', '3'}
)

// Fixed record sizes of the on-disk format, in bytes.
const (
	HeaderSize     = 12
	DirEntrySize   = 32
	NameSize       = 16
	TexHeaderSize  = NameSize + 4 + 4 + MipLevels // 28
	PaletteEntries = 256
	PaletteSize    = PaletteEntries * 3 // 768
	PalettePadding = 2
	MipLevels      = 4
)

// Lump types found in Goldsrc and Quake archives.
const (
	LumpTypePalette  uint8 = 0x40
	LumpTypeQPic     uint8 = 0x42
	LumpTypeMipTex   uint8 = 0x43
	LumpTypeFont     uint8 = 0x46
	LumpTypeMipTexQ1 uint8 = 0x44
)

// validMagic reports whether m is one of the supported archive tags.
func validMagic(m [4]byte) bool {
	return m == MagicWAD2 || m == MagicWAD3
}

// LumpTypeName returns a short label for a lump type.
func LumpTypeName(t uint8) string {
	switch t {
	case LumpTypePalette:
		return "palette"
	case LumpTypeQPic:
		return "qpic"
	case LumpTypeMipTex:
		return "miptex"
	case LumpTypeMipTexQ1:
		return "miptex-q1"
	case LumpTypeFont:
		return "font"
	default:
		return fmt.Sprintf("%#04x", t)
	}
}
