package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
)

const tempSuffix = ".tmp"

// FileStore keeps each blob as a file in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the on-disk path for name.
func (s *FileStore) Path(name string) string { return filepath.Join(s.dir, name) }

// Write writes data to a uniquely named temp file and renames it over name.
func (s *FileStore) Write(name string, data []byte, durable bool) error {
	if err := validName(name); err != nil {
		return err
	}
	tempPath := filepath.Join(s.dir, "."+name+"."+ulid.Make().String()+tempSuffix)
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tempPath)

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("storage: write: %w", err)
	}
	if durable {
		if err := file.Sync(); err != nil {
			file.Close()
			return fmt.Errorf("storage: sync: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("storage: close: %w", err)
	}
	if err := os.Rename(tempPath, s.Path(name)); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	if durable {
		syncDir(s.dir)
	}
	return nil
}

// Read returns the contents of name.
func (s *FileStore) Read(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	return data, nil
}

// Remove deletes name.
func (s *FileStore) Remove(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}

// List returns regular files starting with prefix. Temp files are skipped.
func (s *FileStore) List(prefix string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir: %w", err)
	}
	var out []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Name: name, Size: info.Size(), ModTime: info.ModTime().UnixMilli()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// syncDir flushes the directory entry after a rename. Errors are ignored;
// some platforms cannot fsync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
