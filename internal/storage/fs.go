package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/jobtrail/internal/checksum"
	"github.com/starford/jobtrail/internal/models"
)

// Extensions are tried in this order when locating a collection file.
var Extensions = []string{".json", ".yaml", ".yml"}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the data root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes data root: %s", rel)
	}
	return abs, nil
}

// locate returns the relative file name for c, or fs.ErrNotExist.
func (f *FS) locate(c models.Collection) (string, error) {
	if _, ok := models.ParseCollection(string(c)); !ok {
		return "", fmt.Errorf("storage: unknown collection %q", c)
	}
	for _, ext := range Extensions {
		rel := string(c) + ext
		abs, err := f.safePath(rel)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return rel, nil
		}
	}
	return "", fmt.Errorf("storage: collection %s: %w", c, fs.ErrNotExist)
}

// CollectionForFile maps a file name inside the data root back to its
// collection.
func CollectionForFile(name string) (models.Collection, bool) {
	base := filepath.Base(name)
	for _, ext := range Extensions {
		if stem, ok := strings.CutSuffix(base, ext); ok {
			return models.ParseCollection(stem)
		}
	}
	return "", false
}

// List returns metadata for every collection file present.
func (f *FS) List() ([]models.CollectionMetadata, error) {
	var out []models.CollectionMetadata
	for _, c := range models.AllCollections {
		rel, err := f.locate(c)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		abs := filepath.Join(f.root, rel)
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, models.CollectionMetadata{
			Name:      c,
			Path:      rel,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the file backing c.
func (f *FS) Read(c models.Collection) (*File, error) {
	rel, err := f.locate(c)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return &File{Collection: c, Path: rel, Data: data}, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(c models.Collection, content []byte) error {
	rel, err := f.locate(c)
	if errors.Is(err, fs.ErrNotExist) {
		rel = string(c) + ".json"
	} else if err != nil {
		return err
	}
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".jobtrail-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the file backing c.
func (f *FS) Delete(c models.Collection) error {
	rel, err := f.locate(c)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(f.root, rel)); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	return nil
}
