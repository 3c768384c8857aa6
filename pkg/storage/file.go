package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	hserrors "github.com/Humphrey-He/hshop/pkg/errors"
)

const fileSuffix = ".json"

// FileBackend stores one document per key as a file in a directory.
// Writes go to a temporary file which is then renamed over the target, so a
// reader never observes a half-written document.
//
// FileBackend 将每个键作为目录中的一个文件存储。
// 写入先写临时文件再重命名覆盖目标文件，因此读取方不会看到写了一半的文档。
type FileBackend struct {
	fs     afero.Fs
	dir    string
	mu     sync.RWMutex
	closed bool
	counters
}

// NewFileBackend creates a FileBackend rooted at dir on fs, creating dir if needed.
//
// NewFileBackend 在fs上以dir为根创建FileBackend，必要时创建目录。
//
// Parameters:
//   - fs: The filesystem to use (afero.NewOsFs() in production)
//   - dir: The directory holding the documents
//
// Returns:
//   - *FileBackend: A new file backend
//   - error: An error if the directory cannot be created
func NewFileBackend(fs afero.Fs, dir string) (*FileBackend, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		return nil, fmt.Errorf("file backend: directory is required")
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file backend: create %s: %w", dir, err)
	}
	return &FileBackend{fs: fs, dir: dir}, nil
}

// path maps a key to its file. Keys are path-escaped so "a/b" cannot leave dir.
func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+fileSuffix)
}

// Get reads the document stored under key.
//
// Get 读取键下存储的文档。
func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, false, hserrors.ErrClosed
	}

	data, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			f.recordGet(false)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("file backend: read %q: %w", key, err)
	}

	f.recordGet(true)
	return data, true, nil
}

// Set writes the document atomically.
//
// Set 原子地写入文档。
func (f *FileBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return hserrors.ErrClosed
	}

	target := f.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, value, 0o644); err != nil {
		return fmt.Errorf("file backend: write %q: %w", key, err)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("file backend: rename %q: %w", key, err)
	}

	f.recordWrite()
	return nil
}

// Delete removes the document file.
//
// Delete 删除文档文件。
func (f *FileBackend) Delete(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, hserrors.ErrClosed
	}

	err := f.fs.Remove(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("file backend: delete %q: %w", key, err)
	}

	f.recordDelete(true)
	return true, nil
}

// Clear removes every document in the directory. Unrelated files are left alone.
//
// Clear 删除目录中的所有文档，无关文件保持不变。
func (f *FileBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return hserrors.ErrClosed
	}

	names, err := f.documents()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := f.fs.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("file backend: clear %s: %w", name, err)
		}
	}
	return nil
}

// Stats returns the backend statistics.
//
// Stats 返回后端统计信息。
func (f *FileBackend) Stats(ctx context.Context) (*Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names, err := f.documents()
	if err != nil {
		return nil, err
	}
	return f.snapshot(int64(len(names))), nil
}

// Close marks the backend closed. Files stay on disk.
//
// Close 将后端标记为已关闭，文件保留在磁盘上。
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// documents lists the document file names in dir.
func (f *FileBackend) documents() ([]string, error) {
	infos, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return nil, fmt.Errorf("file backend: list %s: %w", f.dir, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), fileSuffix) {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}
