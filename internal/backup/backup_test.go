package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "halflife.wad")
	orig := bytes.Repeat([]byte("WAD3texture"), 500)
	if err := os.WriteFile(path, orig, 0o644); err != nil {
		t.Fatal(err)
	}

	backupPath, err := Create(path, 1)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if backupPath != path+Suffix {
		t.Fatalf("Create() path = %q, want %q", backupPath, path+Suffix)
	}

	fi, err := os.Stat(backupPath)
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if fi.Size() >= int64(len(orig)) {
		t.Errorf("backup size = %d, want less than %d", fi.Size(), len(orig))
	}

	if err := os.WriteFile(path, []byte("clobbered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Restore(backupPath, path); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, orig) {
		t.Fatal("restored content differs from original")
	}
}

func TestCreateDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wad")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Create(path, 0)
	if err != nil || got != "" {
		t.Fatalf("Create(keep 0) = %q, %v; want no backup", got, err)
	}
	if _, err := os.Stat(Path(path)); !os.IsNotExist(err) {
		t.Fatalf("backup written with keep 0: %v", err)
	}
}

func TestCreateRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wad")

	for _, gen := range []string{"one", "two", "three", "four"} {
		if err := os.WriteFile(path, []byte(gen), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Create(path, 3); err != nil {
			t.Fatalf("Create(%s) failed: %v", gen, err)
		}
	}

	want := map[string]string{
		Path(path):        "four",
		Path(path) + ".1": "three",
		Path(path) + ".2": "two",
	}
	restored := filepath.Join(dir, "restored.wad")
	for backupPath, content := range want {
		if err := Restore(backupPath, restored); err != nil {
			t.Fatalf("Restore(%s) failed: %v", backupPath, err)
		}
		got, err := os.ReadFile(restored)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("%s holds %q, want %q", filepath.Base(backupPath), got, content)
		}
	}

	if _, err := os.Stat(Path(path) + ".3"); !os.IsNotExist(err) {
		t.Errorf("generation beyond keep exists: %v", err)
	}
}

func TestRestoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad"+Suffix)
	if err := os.WriteFile(bad, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.wad")
	if err := os.WriteFile(dst, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Restore(bad, dst); err == nil {
		t.Fatal("Restore() of corrupt backup succeeded")
	}

	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "original" {
		t.Fatalf("dst after failed Restore() = %q, %v; want it untouched", got, err)
	}
}

func TestRestoreKeepsModeAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wad")
	if err := os.WriteFile(path, []byte("generation one"), 0o600); err != nil {
		t.Fatal(err)
	}
	backupPath, err := Create(path, 1)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("generation two"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Restore(backupPath, path); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode after Restore() = %v, want 0600", fi.Mode().Perm())
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestRotateSingleGeneration(t *testing.T) {
	dir := t.TempDir()
	backupPath := filepath.Join(dir, "a.wad"+Suffix)
	if err := os.WriteFile(backupPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rotate(backupPath, 1); err != nil {
		t.Fatalf("rotate() failed: %v", err)
	}

	if _, err := os.Stat(backupPath); !os.IsNotExist(err) {
		t.Errorf("newest slot still occupied: %v", err)
	}
	if _, err := os.Stat(generation(backupPath, 1)); !os.IsNotExist(err) {
		t.Errorf("keep 1 produced an older generation: %v", err)
	}
}
