package wad

import (
	"fmt"
)

// Archive is a fully materialized WAD: header, directory and one texture per
// directory entry at the same index. The name index is derived and rebuilt on
// demand; it is dropped whenever the directory changes.
type Archive struct {
	Header Header

	entries  []DirEntry
	textures []*Texture
	index    map[string]int
}

// NewArchive returns an empty archive to be filled with Add and encoded.
func NewArchive(magic [4]byte) (*Archive, error) {
	if !validMagic(magic) {
		return nil, fmt.Errorf("%w: invalid magic %q", ErrFormat, magic)
	}
	return &Archive{Header: Header{Magic: magic}}, nil
}

// Assemble builds an archive from already decoded parts.
func Assemble(h Header, entries []DirEntry, textures []*Texture) (*Archive, error) {
	if len(entries) != len(textures) {
		return nil, fmt.Errorf("%w: %d entries, %d textures", ErrMismatchedParts, len(entries), len(textures))
	}
	a := &Archive{Header: h, entries: entries, textures: textures}
	a.buildIndex()
	return a, nil
}

// Decode parses a whole archive. It aborts on the first invalid entry.
func Decode(buf []byte) (*Archive, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}

	entries, err := DecodeDirectory(buf, h)
	if err != nil {
		return nil, err
	}

	textures := make([]*Texture, len(entries))
	for i, e := range entries {
		t, err := DecodeTexture(buf, e)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
		textures[i] = t
	}

	return Assemble(h, entries, textures)
}

// Encode lays the archive out as header, texture records in directory order,
// then the directory. Every entry's FilePos and sizes are rewritten to match
// that layout, and the header's EntryCount and DirOffset are recomputed.
// On success a reflects exactly what was written.
func Encode(a *Archive) ([]byte, error) {
	records := make([][]byte, len(a.textures))
	entries := make([]DirEntry, len(a.entries))
	copy(entries, a.entries)

	pos := int64(HeaderSize)
	for i, t := range a.textures {
		if entries[i].Compressed {
			return nil, fmt.Errorf("entry %d (%s): %w: cannot write compressed lumps", i, entries[i].Name, ErrUnsupported)
		}

		rec, err := t.Encode()
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entries[i].Name, err)
		}
		records[i] = rec

		size := int64(len(rec))
		if !fitsUint32(pos) || !fitsUint32(pos+size) {
			return nil, fmt.Errorf("%w: archive exceeds 4 GiB at entry %d", ErrFormat, i)
		}
		entries[i].FilePos = uint32(pos)
		entries[i].DiskSize = uint32(size)
		entries[i].FullSize = uint32(size)
		entries[i].Name = t.Name
		pos += size
	}

	h := a.Header
	h.EntryCount = uint32(len(entries))
	h.DirOffset = uint32(pos)

	total := pos + int64(len(entries))*DirEntrySize
	if !fitsUint32(total) {
		return nil, fmt.Errorf("%w: archive exceeds 4 GiB", ErrFormat)
	}

	out := make([]byte, total)
	c := cursor{buf: out}
	if err := c.putBytes(0, h.Encode()); err != nil {
		return nil, err
	}
	for i, rec := range records {
		if err := c.putBytes(int64(entries[i].FilePos), rec); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, entries[i].Name, err)
		}
	}
	if err := c.putBytes(int64(h.DirOffset), EncodeDirectory(entries)); err != nil {
		return nil, fmt.Errorf("failed to write directory: %w", err)
	}

	h.FileSize = len(out)
	a.Header = h
	a.entries = entries
	a.index = nil

	return out, nil
}

// Len returns the number of entries.
func (a *Archive) Len() int { return len(a.entries) }

// Entries returns a copy of the directory.
func (a *Archive) Entries() []DirEntry {
	out := make([]DirEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Textures returns the textures in directory order. The slice is a copy; the
// textures are shared with the archive.
func (a *Archive) Textures() []*Texture {
	out := make([]*Texture, len(a.textures))
	copy(out, a.textures)
	return out
}

// At returns the entry and texture at index i.
func (a *Archive) At(i int) (DirEntry, *Texture) {
	return a.entries[i], a.textures[i]
}

// Reindex copies each texture's name into its directory entry and rebuilds
// the name index. Call it after renaming a *Texture directly.
func (a *Archive) Reindex() {
	for i, t := range a.textures {
		if t == nil || i >= len(a.entries) {
			continue
		}
		t.Name = normalizeName(t.Name[:])
		a.entries[i].Name = t.Name
	}
	a.buildIndex()
}

// buildIndex maps directory names to positions. The first entry wins when
// names repeat.
func (a *Archive) buildIndex() {
	a.index = make(map[string]int, len(a.entries))
	for i := range a.entries {
		key := a.entries[i].Name.String()
		if _, ok := a.index[key]; !ok {
			a.index[key] = i
		}
	}
}

// Lookup finds an entry and its texture by name, ignoring case.
func (a *Archive) Lookup(name string) (DirEntry, *Texture, bool) {
	i, ok := a.find(name)
	if !ok {
		return DirEntry{}, nil, false
	}
	return a.entries[i], a.textures[i], true
}

func (a *Archive) find(name string) (int, bool) {
	if a.index == nil {
		a.buildIndex()
	}
	key := lookupKey(name)
	i, ok := a.index[key]
	if !ok || i >= len(a.entries) || a.entries[i].Name.String() != key {
		return 0, false
	}
	return i, true
}

// Add appends a texture and a directory entry for it. Offsets and sizes are
// filled in by Encode.
func (a *Archive) Add(t *Texture, lumpType uint8) error {
	t.Name = normalizeName(t.Name[:])
	if err := t.validate(); err != nil {
		return err
	}
	if _, ok := a.find(t.Name.String()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, t.Name)
	}

	size := uint32(t.EncodedSize())
	a.entries = append(a.entries, DirEntry{
		DiskSize: size,
		FullSize: size,
		Type:     lumpType,
		Name:     t.Name,
	})
	a.textures = append(a.textures, t)
	a.Header.EntryCount = uint32(len(a.entries))
	a.index = nil
	return nil
}

// Remove deletes the first entry with the given name.
func (a *Archive) Remove(name string) bool {
	i, ok := a.find(name)
	if !ok {
		return false
	}
	a.entries = append(a.entries[:i], a.entries[i+1:]...)
	a.textures = append(a.textures[:i], a.textures[i+1:]...)
	a.Header.EntryCount = uint32(len(a.entries))
	a.index = nil
	return true
}

// Rename changes the name of an entry and its texture.
func (a *Archive) Rename(oldName, newName string) error {
	i, ok := a.find(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	n := NewName(newName)
	if j, ok := a.find(n.String()); ok && j != i {
		return fmt.Errorf("%w: %s", ErrDuplicateName, n)
	}
	a.entries[i].Name = n
	a.textures[i].Name = n
	a.index = nil
	return nil
}
