package adapter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

func TestLocalSourceFSAdapter_ReadFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	path := filepath.Join(root, "home.dart")
	content := "import 'package:flutter/material.dart';\n" + "void main() {}\n"
	writeTestFile(t, path, content)

	got, err := adapter.ReadFile(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(got) != content {
		t.Fatalf("ReadFile() = %q, want %q", string(got), content)
	}
}

func TestLocalSourceFSAdapter_ReadFileMissing(t *testing.T) {
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	_, err := adapter.ReadFile(context.Background(), m.Path(filepath.Join(t.TempDir(), "nope.dart")))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("ReadFile() error = %v, want fs.ErrNotExist", err)
	}
}

func TestLocalSourceFSAdapter_ReadCache(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, "home.dart")
	writeTestFile(t, path, "aaaa\n")

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mustChtimes(t, path, stamp)

	t.Run("unchanged mtime and size serves cached copy", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

		if _, err := adapter.ReadFile(ctx, m.Path(path)); err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		writeTestFile(t, path, "bbbb\n")
		mustChtimes(t, path, stamp)

		got, err := adapter.ReadFile(ctx, m.Path(path))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		if string(got) != "aaaa\n" {
			t.Fatalf("ReadFile() = %q, want cached %q", got, "aaaa\n")
		}

		fresh, err := adapter.ReadFileFresh(ctx, m.Path(path))
		if err != nil {
			t.Fatalf("ReadFileFresh() error = %v", err)
		}

		if string(fresh) != "bbbb\n" {
			t.Fatalf("ReadFileFresh() = %q, want %q", fresh, "bbbb\n")
		}
	})

	t.Run("changed mtime invalidates", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)
		writeTestFile(t, path, "cccc\n")
		mustChtimes(t, path, stamp)

		if _, err := adapter.ReadFile(ctx, m.Path(path)); err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		writeTestFile(t, path, "dddd\n")
		mustChtimes(t, path, stamp.Add(time.Minute))

		got, err := adapter.ReadFile(ctx, m.Path(path))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		if string(got) != "dddd\n" {
			t.Fatalf("ReadFile() = %q, want %q", got, "dddd\n")
		}
	})

	t.Run("disabled cache always reads disk", func(t *testing.T) {
		adapter := NewLocalSourceFSAdapter(0)
		writeTestFile(t, path, "eeee\n")
		mustChtimes(t, path, stamp)

		if _, err := adapter.ReadFile(ctx, m.Path(path)); err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		writeTestFile(t, path, "ffff\n")
		mustChtimes(t, path, stamp)

		got, err := adapter.ReadFile(ctx, m.Path(path))
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}

		if string(got) != "ffff\n" {
			t.Fatalf("ReadFile() = %q, want %q", got, "ffff\n")
		}
	})
}

func TestLocalSourceFSAdapter_HashFile(t *testing.T) {
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	path := filepath.Join(root, "home.dart")
	content := []byte("void main() {}\n")
	writeTestBytes(t, path, content)

	expected := fmt.Sprintf("%x", sha256.Sum256(content))

	hash, err := adapter.HashFile(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if hash != expected {
		t.Fatalf("HashFile() = %s, want %s", hash, expected)
	}
}

func TestLocalSourceFSAdapter_HashFileBypassesCache(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	backup := filepath.Join(root, "home.dart.20260314-150926.535.bak")
	writeTestFile(t, backup, "aaaa\n")

	if _, err := adapter.HashFile(ctx, m.Path(backup)); err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if adapter.cache.Contains(m.Path(backup)) {
		t.Fatalf("HashFile() cached %s", backup)
	}

	source := filepath.Join(root, "home.dart")
	writeTestFile(t, source, "aaaa\n")

	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mustChtimes(t, source, stamp)

	if _, err := adapter.ReadFile(ctx, m.Path(source)); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	writeTestFile(t, source, "bbbb\n")
	mustChtimes(t, source, stamp)

	hash, err := adapter.HashFile(ctx, m.Path(source))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if want := fmt.Sprintf("%x", sha256.Sum256([]byte("bbbb\n"))); hash != want {
		t.Fatalf("HashFile() = %s, want hash of the content on disk %s", hash, want)
	}
}

func TestLocalSourceFSAdapter_FileInfo(t *testing.T) {
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	path := filepath.Join(root, "home.dart")
	writeTestFile(t, path, "void main() {}\n")

	info, err := adapter.FileInfo(context.Background(), m.Path(path))
	if err != nil {
		t.Fatalf("FileInfo() error = %v", err)
	}

	if info.IsDir() {
		t.Fatalf("FileInfo() reported directory for file")
	}
}

func TestLocalSourceFSAdapter_WriteFileAtomic(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	path := filepath.Join(root, "home.dart")
	writeTestFile(t, path, "old\n")

	if _, err := adapter.ReadFile(ctx, m.Path(path)); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if err := adapter.WriteFileAtomic(ctx, m.Path(path), []byte("new\n"), 0o640); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, err := adapter.ReadFile(ctx, m.Path(path))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(got) != "new\n" {
		t.Fatalf("ReadFile() after write = %q, want %q", got, "new\n")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}

	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode = %v, want 0640", info.Mode().Perm())
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestLocalSourceFSAdapter_CreateFile(t *testing.T) {
	ctx := context.Background()
	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)

	root := t.TempDir()
	path := filepath.Join(root, "home.dart.bak")

	if err := adapter.CreateFile(ctx, m.Path(path), []byte("copy\n"), 0o600); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	err := adapter.CreateFile(ctx, m.Path(path), []byte("other\n"), 0o600)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("CreateFile() on existing path error = %v, want fs.ErrExist", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if string(got) != "copy\n" {
		t.Fatalf("existing file overwritten: %q", got)
	}
}

func TestLocalSourceFSAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewLocalSourceFSAdapter(DefaultReadCacheSize)
	path := filepath.Join(t.TempDir(), "home.dart")

	if _, err := adapter.ReadFile(ctx, m.Path(path)); !errors.Is(err, context.Canceled) {
		t.Fatalf("ReadFile() error = %v, want context.Canceled", err)
	}

	if err := adapter.WriteFileAtomic(ctx, m.Path(path), []byte("x"), 0o600); !errors.Is(err, context.Canceled) {
		t.Fatalf("WriteFileAtomic() error = %v, want context.Canceled", err)
	}
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	writeTestBytes(t, path, []byte(contents))
}

func writeTestBytes(t *testing.T, path string, contents []byte) {
	t.Helper()
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func mustChtimes(t *testing.T, path string, stamp time.Time) {
	t.Helper()
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("failed to set times on %s: %v", path, err)
	}
}
