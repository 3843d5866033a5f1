package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/bsduhaime/waddle/internal/config"
	"github.com/bsduhaime/waddle/internal/logging"
	"github.com/bsduhaime/waddle/internal/wad"
)

// WadReader reads information from WAD files.
type WadReader struct {
	data   []byte
	config *config.Config
	logger *slog.Logger
	header *wad.Header // WAD file header
}

// ReadHeader reads the 12-byte header and validates its magic.
func (r *WadReader) ReadHeader() (*wad.Header, error) {
	h, err := wad.DecodeHeader(r.data)
	if err != nil {
		return nil, err
	}

	r.logger.Info("header is valid",
		"magic", string(h.Magic[:]),
		"entry_count", h.EntryCount,
		"dir_offset", h.DirOffset,
		"file_size", h.FileSize,
	)

	r.header = &h
	return &h, nil
}

// ReadDir reads the directory located by the header.
// ReadHeader must be called first.
func (r *WadReader) ReadDir() ([]wad.DirEntry, error) {
	if r.header == nil {
		return nil, errors.New("header has not been read")
	}

	entries, err := wad.DecodeDirectory(r.data, *r.header)
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		r.logger.Debug("read directory entry",
			"index", i,
			"name", e.Name.String(),
			"type", e.Type,
			"file_pos", e.FilePos,
			"disk_size", e.DiskSize,
			"compressed", e.Compressed,
		)
	}

	r.logger.Info("read directory",
		"entry_count", len(entries),
	)

	return entries, nil
}

// ReadTextures decodes the texture record of every entry.
// Decoding stops at the first invalid record.
func (r *WadReader) ReadTextures(ctx context.Context, entries []wad.DirEntry) ([]*wad.Texture, error) {
	textures := make([]*wad.Texture, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := wad.DecodeTexture(r.data, e)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %d (%s): %w", i, e.Name, err)
		}
		textures[i] = t

		r.logger.Log(ctx, logging.LevelTrace, "read texture",
			"index", i,
			"name", t.Name.String(),
			"width", t.Width,
			"height", t.Height,
			"mip_offsets", t.MipOffsets[:],
			"palette_offset", t.PaletteOffset(),
		)
	}

	r.logger.Info("read textures",
		"count", len(textures),
	)

	return textures, nil
}

// Parse decodes a whole archive held in memory.
func Parse(ctx context.Context, data []byte, cfg *config.Config) (*wad.Archive, error) {
	logger := slog.With(
		"file", cfg.InputFile,
	)

	logger.Debug("starting", "size", len(data))

	reader := &WadReader{
		data:   data,
		config: cfg,
		logger: logger,
	}

	h, err := reader.ReadHeader()
	if err != nil {
		return nil, err
	}

	entries, err := reader.ReadDir()
	if err != nil {
		return nil, err
	}

	textures, err := reader.ReadTextures(ctx, entries)
	if err != nil {
		return nil, err
	}

	return wad.Assemble(*h, entries, textures)
}

// Load maps cfg.InputFile and decodes it.
func Load(ctx context.Context, cfg *config.Config) (*wad.Archive, error) {
	data, err := ReadFile(cfg.InputFile)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, data, cfg)
}

// ReadFile copies a file into memory through a read-only mapping.
func ReadFile(path string) ([]byte, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAD file: %w", err)
	}
	defer m.Close()

	data := make([]byte, m.Len())
	if _, err := m.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read WAD file: %w", err)
	}

	return data, nil
}

// Save encodes a and replaces path with the result. The file is written next
// to path first and renamed over it, so a failed write leaves path intact.
func Save(path string, a *wad.Archive) (int, error) {
	data, err := wad.Encode(a)
	if err != nil {
		return 0, fmt.Errorf("failed to encode archive: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("failed to set archive mode: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}

	slog.Info("wrote archive",
		"file", path,
		"entries", a.Len(),
		"size", len(data),
		"dir_offset", a.Header.DirOffset,
	)

	return len(data), nil
}
