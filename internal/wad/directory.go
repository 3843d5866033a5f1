package wad

import (
	"encoding/binary"
	"fmt"
)

// DecodeDirectory reads h.EntryCount consecutive 32-byte records starting at
// h.DirOffset.
//
// Record layout:
//
//	[filePos u32][diskSize u32][fullSize u32][type u8][compressed u8][reserved u16][name 16]
func DecodeDirectory(buf []byte, h Header) ([]DirEntry, error) {
	table, err := span(buf, int64(h.DirOffset), int64(h.EntryCount)*DirEntrySize)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory of %d entries: %w", h.EntryCount, err)
	}

	entries := make([]DirEntry, h.EntryCount)
	for i := range entries {
		entries[i] = decodeDirEntry(table[i*DirEntrySize : (i+1)*DirEntrySize])
	}

	return entries, nil
}

func decodeDirEntry(rec []byte) DirEntry {
	return DirEntry{
		FilePos:    binary.LittleEndian.Uint32(rec[0:4]),
		DiskSize:   binary.LittleEndian.Uint32(rec[4:8]),
		FullSize:   binary.LittleEndian.Uint32(rec[8:12]),
		Type:       rec[12],
		Compressed: rec[13] != 0,
		// rec[14:16] is reserved
		Name: normalizeName(rec[16:32]),
	}
}

// EncodeDirectory packs entries back to back. The reserved field is always 0.
func EncodeDirectory(entries []DirEntry) []byte {
	out := make([]byte, len(entries)*DirEntrySize)
	for i, e := range entries {
		e.encode(out[i*DirEntrySize : (i+1)*DirEntrySize])
	}
	return out
}

func (e DirEntry) encode(rec []byte) {
	binary.LittleEndian.PutUint32(rec[0:4], e.FilePos)
	binary.LittleEndian.PutUint32(rec[4:8], e.DiskSize)
	binary.LittleEndian.PutUint32(rec[8:12], e.FullSize)
	rec[12] = e.Type
	if e.Compressed {
		rec[13] = 1
	}
	name := normalizeName(e.Name[:])
	copy(rec[16:32], name[:])
}
