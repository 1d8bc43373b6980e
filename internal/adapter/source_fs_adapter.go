// Package adapter contains infrastructure adapters for the a11yfix engine:
// source file access and the text-generation oracles.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// DefaultReadCacheSize is the number of files kept by the read cache.
const DefaultReadCacheSize = 64

// SourceFSAdapter abstracts filesystem operations the domain layer relies on
// when reading and patching source files. It hides direct `os` access so the
// pipeline can be tested stage by stage.
type SourceFSAdapter interface {
	// ReadFile returns file contents, served from the read cache while the
	// file's modification time and size are unchanged.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// ReadFileFresh always reads from disk and refreshes the cache.
	ReadFileFresh(ctx context.Context, path m.Path) ([]byte, error)

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// HashFile returns the SHA-256 hex digest of the file's current content,
	// read from disk without touching the read cache.
	HashFile(ctx context.Context, path m.Path) (string, error)

	// WriteFileAtomic replaces path with content via a same-directory temp
	// file and rename, so readers never observe a partial write.
	WriteFileAtomic(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// CreateFile writes content to a new file and fails if path already exists.
	CreateFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error
}

type cachedFile struct {
	modTime time.Time
	size    int64
	content []byte
}

// LocalSourceFSAdapter is the os-backed SourceFSAdapter.
type LocalSourceFSAdapter struct {
	cache *lru.Cache[m.Path, cachedFile]
}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter with a read cache
// holding up to cacheSize files. A non-positive size disables caching.
func NewLocalSourceFSAdapter(cacheSize int) *LocalSourceFSAdapter {
	a := &LocalSourceFSAdapter{}
	if cacheSize <= 0 {
		return a
	}

	cache, err := lru.New[m.Path, cachedFile](cacheSize)
	if err != nil {
		slog.Warn("Read cache disabled", "size", cacheSize, "error", err)
		return a
	}

	a.cache = cache

	return a
}

// ReadFile loads file contents, reusing the cached copy when it is still current.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if a.cache == nil {
		return a.ReadFileFresh(ctx, path)
	}

	info, err := os.Stat(string(path))
	if err != nil {
		a.cache.Remove(path)
		return nil, err
	}

	if entry, ok := a.cache.Get(path); ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		slog.Debug("read cache hit", "path", path)
		return cloneBytes(entry.content), nil
	}

	return a.ReadFileFresh(ctx, path)
}

// ReadFileFresh loads file contents from disk and refreshes the cache entry.
func (a *LocalSourceFSAdapter) ReadFileFresh(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - path is the file under repair, chosen by the caller
	content, err := os.ReadFile(string(path))
	if err != nil {
		if a.cache != nil {
			a.cache.Remove(path)
		}

		return nil, err
	}

	a.remember(path, content)

	return content, nil
}

func (a *LocalSourceFSAdapter) remember(path m.Path, content []byte) {
	if a.cache == nil {
		return
	}

	info, err := os.Stat(string(path))
	if err != nil {
		a.cache.Remove(path)
		return
	}

	a.cache.Add(path, cachedFile{modTime: info.ModTime(), size: info.Size(), content: cloneBytes(content)})
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return os.Stat(string(path))
}

// HashFile returns the SHA-256 hash of the file at the provided path. The
// file is streamed from disk and never enters the read cache.
func (a *LocalSourceFSAdapter) HashFile(ctx context.Context, path m.Path) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// #nosec G304 - path is a file the engine wrote or is repairing
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// WriteFileAtomic writes content to a temp file next to path, syncs it, and
// renames it over path.
func (a *LocalSourceFSAdapter) WriteFileAtomic(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.cache != nil {
		defer a.cache.Remove(path)
	}

	dest := string(path)

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, content); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}

func writeAndSync(f *os.File, content []byte) error {
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// CreateFile writes content to a new file, refusing to overwrite an existing one.
func (a *LocalSourceFSAdapter) CreateFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// #nosec G304 - backup path is derived from the file under repair
	f, err := os.OpenFile(string(path), os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if err := writeAndSync(f, content); err != nil {
		_ = os.Remove(string(path))
		return err
	}

	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)

	return out
}
