// Package backup keeps zstd-compressed copies of an archive before it is
// rewritten in place.
package backup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Suffix is appended to the archive path to name its newest backup. Older
// generations get ".1", ".2" and so on.
const Suffix = ".bak.zst"

// Path returns the newest backup path for an archive.
func Path(path string) string { return path + Suffix }

// Create compresses the file at path into Path(path), rotating up to keep
// generations. keep <= 0 disables backups and returns "".
func Create(path string, keep int) (string, error) {
	if keep <= 0 {
		return "", nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", fmt.Errorf("zstd writer: %w", err)
	}
	out := enc.EncodeAll(src, nil)
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("zstd close: %w", err)
	}

	backupPath := Path(path)
	if err := rotate(backupPath, keep); err != nil {
		return "", err
	}

	if err := os.WriteFile(backupPath, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	slog.Info("created backup",
		"file", backupPath,
		"size", len(src),
		"compressed_size", len(out),
	)

	return backupPath, nil
}

// Restore decompresses backupPath over dst. The data is written next to dst
// and renamed over it, so a failed restore leaves dst untouched.
func Restore(backupPath, dst string) error {
	src, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(src, nil)
	if err != nil {
		return fmt.Errorf("zstd decode %s: %w", backupPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(dst); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set mode of %s: %w", dst, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restore %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to restore %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}

	return nil
}

// generation names backup n of path; 0 is the newest.
func generation(backupPath string, n int) string {
	if n == 0 {
		return backupPath
	}
	return fmt.Sprintf("%s.%d", backupPath, n)
}

// rotate frees the newest slot. Generation keep-1 is dropped and every
// younger one moves up by one.
func rotate(backupPath string, keep int) error {
	oldest := generation(backupPath, keep-1)
	if err := os.Remove(oldest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", oldest, err)
	}

	for n := keep - 1; n >= 1; n-- {
		from, to := generation(backupPath, n-1), generation(backupPath, n)
		if err := os.Rename(from, to); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rename %s to %s: %w", from, to, err)
		}
	}

	return nil
}
