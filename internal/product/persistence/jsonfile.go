// Package persistence reads and writes collections as JSON arrays on disk.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	perrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/google/uuid"
)

const filePerm = 0o644

// JSONFile binds a collection of T to a single backing file.
type JSONFile[T any] struct {
	path string
}

// NewJSONFile creates a JSONFile for the given path. The file is not touched until Load or Save.
func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

// Path returns the backing file path.
func (f *JSONFile[T]) Path() string {
	return f.path
}

// Load returns the stored collection.
// A missing file is an empty collection; any other failure is ErrStorageRead.
func (f *JSONFile[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, perrors.ReadError(f.path, err)
	}
	items, err := Read[T](f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, nil
		}
		return nil, err
	}
	return items, nil
}

// Save replaces the backing file with the given collection.
func (f *JSONFile[T]) Save(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return perrors.WriteError(f.path, err)
	}
	return Write(f.path, items)
}

// Read parses the JSON array stored at path.
// Returns ErrStorageRead wrapping the cause if the file is missing, unreadable or malformed.
func Read[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.ReadError(path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, perrors.ReadError(path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Write serializes items as a 2-space indented JSON array and replaces the file at path.
// The data goes to a temp file in the same directory which is then renamed over path,
// so readers never observe a partially written file. An existing file keeps its permissions.
// Returns ErrStorageWrite wrapping the cause on any failure.
func Write[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return perrors.WriteError(path, err)
	}

	tmp := tempName(path)
	if err := writeSynced(tmp, data, fileMode(path)); err != nil {
		_ = os.Remove(tmp)
		return perrors.WriteError(path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return perrors.WriteError(path, err)
	}
	// Best effort: the new file is already in place.
	_ = syncDir(filepath.Dir(path))
	return nil
}

// fileMode returns the permissions of the file at path, or filePerm if it does not exist yet.
func fileMode(path string) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return filePerm
	}
	return info.Mode().Perm()
}

// tempName returns a unique sibling of path, e.g. dir/.products.json.<uuid>.tmp
func tempName(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))
}

func writeSynced(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	// OpenFile applies the umask.
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes the directory entry so the rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}
