package blade

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrReadOnly is returned by stores that cannot be written to.
var ErrReadOnly = errors.New("store is read-only")

// Store is the file access the cache gate needs.
type Store interface {
	Load(path string) (string, error)
	Store(path, content string) error
	Timestamp(path string) (time.Time, error)
	Exists(path string) bool
}

// FSStore reads from an fs.FS. It is used for view sources.
type FSStore struct {
	FS fs.FS
}

func (s FSStore) Load(path string) (string, error) {
	b, err := fs.ReadFile(s.FS, path)
	return string(b), err
}

func (s FSStore) Store(string, string) error {
	return ErrReadOnly
}

func (s FSStore) Timestamp(path string) (time.Time, error) {
	info, err := fs.Stat(s.FS, path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s FSStore) Exists(path string) bool {
	_, err := fs.Stat(s.FS, path)
	return err == nil
}

// DirStore keeps files in a directory on disk. Writes go to a temporary
// file that is renamed into place, so readers never see partial content.
type DirStore struct {
	Dir string
}

func (s DirStore) path(p string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(p))
}

func (s DirStore) Load(path string) (string, error) {
	b, err := os.ReadFile(s.path(path))
	return string(b), err
}

func (s DirStore) Store(path, content string) error {
	target := s.path(path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".blade-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (s DirStore) Timestamp(path string) (time.Time, error) {
	info, err := os.Stat(s.path(path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (s DirStore) Exists(path string) bool {
	_, err := os.Stat(s.path(path))
	return err == nil
}

// Flush removes every compiled artifact in the directory.
func (s DirStore) Flush() error {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), CompiledExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
