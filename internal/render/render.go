// Package render turns decoded textures into paletted images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/bsduhaime/waddle/internal/wad"
)

// DefaultCacheSize is used when New is given a non-positive size.
const DefaultCacheSize = 64

type cacheKey struct {
	sum   uint64
	level int
}

// Renderer builds images and keeps recently rendered ones in an ARC cache
// keyed by texture checksum and mip level. Textures with identical content
// share one cached image.
type Renderer struct {
	cache *arc.ARCCache[cacheKey, *image.Paletted]
}

// New returns a Renderer caching up to size images.
func New(size int) (*Renderer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := arc.NewARC[cacheKey, *image.Paletted](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create ARC cache: %w", err)
	}

	return &Renderer{cache: cache}, nil
}

// Image returns the image for a mip level, rendering it on a cache miss.
// Callers must not modify the returned image.
func (r *Renderer) Image(t *wad.Texture, level int) (*image.Paletted, error) {
	key := cacheKey{sum: t.Checksum(), level: level}
	if img, ok := r.cache.Get(key); ok {
		return img, nil
	}

	img, err := Image(t, level)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, img)

	return img, nil
}

// Len returns the number of cached images.
func (r *Renderer) Len() int { return r.cache.Len() }

// Image renders one mip level without caching.
func Image(t *wad.Texture, level int) (*image.Paletted, error) {
	raster, w, h, err := t.Raster(level)
	if err != nil {
		return nil, err
	}
	if int64(len(raster)) != int64(w)*int64(h) {
		return nil, fmt.Errorf("%w: mip %d of %q is %d bytes, want %dx%d",
			wad.ErrFormat, level, t.Name, len(raster), w, h)
	}

	img := image.NewPaletted(image.Rect(0, 0, int(w), int(h)), Palette(&t.Palette))
	for y := 0; y < int(h); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+int(w)], raster[y*int(w):(y+1)*int(w)])
	}

	return img, nil
}

// Palette converts a WAD palette to an opaque color.Palette.
func Palette(p *wad.Palette) color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	return out
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
