package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// canonicalMipOffsets places the first mip block directly after the
// sub-header and keeps the remaining blocks contiguous.
var canonicalMipOffsets = [MipLevels]uint8{TexHeaderSize, 0, 0, 0}

// Texture is one decoded texture record: a 28-byte sub-header, four indexed
// rasters of halving size, two padding bytes and a 256-color palette.
//
// MipOffsets are chained deltas, not absolute positions: a running cursor
// starts at the record base and advances by MipOffsets[k] before mip k is
// read and by the size of mip k after it.
type Texture struct {
	Name       Name
	Width      uint32
	Height     uint32
	MipOffsets [MipLevels]uint8
	Mips       [MipLevels][]byte
	Palette    Palette
}

// NewTexture builds a texture from finalized rasters and validates that each
// raster matches its mip level geometry.
func NewTexture(name string, width, height uint32, mips [MipLevels][]byte, pal Palette) (*Texture, error) {
	t := &Texture{
		Name:       NewName(name),
		Width:      width,
		Height:     height,
		MipOffsets: canonicalMipOffsets,
		Mips:       mips,
		Palette:    pal,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MipDims returns the dimensions of a mip level. Each level halves the
// previous one, truncating toward zero.
func (t *Texture) MipDims(level int) (w, h uint32) {
	return t.Width >> level, t.Height >> level
}

// MipSize returns the byte length of a mip level raster.
func (t *Texture) MipSize(level int) int64 {
	w, h := t.MipDims(level)
	return int64(w) * int64(h)
}

// PixelCount returns the total byte length of all four mip rasters.
func (t *Texture) PixelCount() int64 {
	var n int64
	for k := 0; k < MipLevels; k++ {
		n += t.MipSize(k)
	}
	return n
}

// PaletteOffset returns the palette position relative to the record base.
// It is derived from the mip offsets and geometry, never stored; for
// dimensions divisible by 8 it equals the classic
// ΣMipOffsets + floor(width*height*1.328125) + 2.
func (t *Texture) PaletteOffset() int64 {
	var off int64
	for _, o := range t.MipOffsets {
		off += int64(o)
	}
	return off + t.PixelCount() + PalettePadding
}

// EncodedSize is the byte length of the record as written by Encode.
func (t *Texture) EncodedSize() int64 {
	n := int64(TexHeaderSize + PalettePadding + PaletteSize)
	for _, m := range t.Mips {
		n += int64(len(m))
	}
	return n
}

// Raster returns the indexed pixels of a mip level, row-major, along with its
// dimensions.
func (t *Texture) Raster(level int) ([]byte, uint32, uint32, error) {
	if level < 0 || level >= MipLevels {
		return nil, 0, 0, fmt.Errorf("%w: %d", ErrMipLevel, level)
	}
	w, h := t.MipDims(level)
	return t.Mips[level], w, h, nil
}

// Checksum hashes geometry, rasters and palette. Equal textures under
// different names share a checksum.
func (t *Texture) Checksum() uint64 {
	d := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[0:4], t.Width)
	binary.LittleEndian.PutUint32(dims[4:8], t.Height)
	_, _ = d.Write(dims[:])
	for _, m := range t.Mips {
		_, _ = d.Write(m)
	}
	_, _ = d.Write(t.Palette.bytes())
	return d.Sum64()
}

func (t *Texture) String() string {
	return fmt.Sprintf("%s, Dimensions: (%d, %d), Mipmap Offsets: %v",
		t.Name, t.Width, t.Height, t.MipOffsets)
}

// checkGeometry rejects empty textures and dimensions whose record would not
// be addressable with 32-bit offsets.
func (t *Texture) checkGeometry() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("%w: texture %q has empty dimensions %dx%d", ErrFormat, t.Name, t.Width, t.Height)
	}
	if uint64(t.Width)*uint64(t.Height) > math.MaxUint32 {
		return fmt.Errorf("%w: texture %q dimensions %dx%d overflow", ErrFormat, t.Name, t.Width, t.Height)
	}
	if !fitsUint32(TexHeaderSize + t.PixelCount() + PalettePadding + PaletteSize) {
		return fmt.Errorf("%w: texture %q record exceeds 4 GiB", ErrFormat, t.Name)
	}
	return nil
}

// validate checks geometry and that every raster has its level's size.
func (t *Texture) validate() error {
	if err := t.checkGeometry(); err != nil {
		return err
	}
	for k, m := range t.Mips {
		if want := t.MipSize(k); int64(len(m)) != want {
			w, h := t.MipDims(k)
			return fmt.Errorf("%w: texture %q mip %d is %d bytes, want %d (%dx%d)",
				ErrFormat, t.Name, k, len(m), want, w, h)
		}
	}
	return nil
}

// DecodeTexture reads the texture record referenced by e.
func DecodeTexture(buf []byte, e DirEntry) (*Texture, error) {
	if e.Compressed {
		return nil, fmt.Errorf("%w: compressed lump %q", ErrUnsupported, e.Name)
	}

	c := cursor{buf: buf}
	base := int64(e.FilePos)

	hdr, err := c.bytes(base, TexHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read texture header: %w", err)
	}

	t := &Texture{
		Name:   normalizeName(hdr[0:NameSize]),
		Width:  binary.LittleEndian.Uint32(hdr[16:20]),
		Height: binary.LittleEndian.Uint32(hdr[20:24]),
	}
	copy(t.MipOffsets[:], hdr[24:28])

	if err := t.checkGeometry(); err != nil {
		return nil, err
	}

	pos := base
	for k := 0; k < MipLevels; k++ {
		pos += int64(t.MipOffsets[k])
		n := t.MipSize(k)
		block, err := c.bytes(pos, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read mip %d of %q: %w", k, t.Name, err)
		}
		t.Mips[k] = bytes.Clone(block)
		pos += n
	}

	pal, err := c.bytes(base+t.PaletteOffset(), PaletteSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read palette of %q: %w", t.Name, err)
	}
	t.Palette = decodePalette(pal)

	return t, nil
}

// Encode serializes the record and recomputes MipOffsets so that the
// rasters follow the sub-header back to back.
func (t *Texture) Encode() ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	out := make([]byte, t.EncodedSize())
	c := cursor{buf: out}

	name := normalizeName(t.Name[:])
	if err := c.putBytes(0, name[:]); err != nil {
		return nil, err
	}
	if err := c.putUint32(16, t.Width); err != nil {
		return nil, err
	}
	if err := c.putUint32(20, t.Height); err != nil {
		return nil, err
	}
	if err := c.putBytes(24, canonicalMipOffsets[:]); err != nil {
		return nil, err
	}

	var pos int64
	for k, m := range t.Mips {
		pos += int64(canonicalMipOffsets[k])
		if err := c.putBytes(pos, m); err != nil {
			return nil, fmt.Errorf("failed to write mip %d of %q: %w", k, t.Name, err)
		}
		pos += int64(len(m))
	}

	// two zero padding bytes precede the palette
	if err := c.putBytes(pos+PalettePadding, t.Palette.bytes()); err != nil {
		return nil, fmt.Errorf("failed to write palette of %q: %w", t.Name, err)
	}

	t.Name = name
	t.MipOffsets = canonicalMipOffsets
	return out, nil
}
