package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// collection stores one JSON file per document under root/dir.
type collection[T any] struct {
	dir string
}

func newCollection[T any](root, name string) collection[T] {
	return collection[T]{dir: filepath.Join(root, name)}
}

func (c collection[T]) path(id string) string {
	return filepath.Join(c.dir, filepath.Base(filepath.Clean(id))+".json")
}

// all returns every document. A missing directory is an empty collection.
func (c collection[T]) all() ([]*T, error) {
	root := os.DirFS(c.dir)

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", c.dir, err)
	}

	out := make([]*T, 0, len(files))

	for _, file := range files {
		doc, err := c.get(strings.TrimSuffix(file, ".json"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, err
		}

		out = append(out, doc)
	}

	return out, nil
}

// get returns the document or an error wrapping fs.ErrNotExist.
func (c collection[T]) get(id string) (*T, error) {
	body, err := os.ReadFile(c.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}

	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", id, err)
	}

	return &doc, nil
}

// put writes the document through a temporary file so readers never see a partial
// write.
func (c collection[T]) put(id string, doc *T) error {
	if err := os.MkdirAll(c.dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to write %s: %w", id, err)
	}

	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("failed to set permissions on %s: %w", id, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", id, err)
	}

	if err := os.Rename(tmp.Name(), c.path(id)); err != nil {
		return fmt.Errorf("failed to store %s: %w", id, err)
	}

	return nil
}

func (c collection[T]) remove(id string) error {
	err := os.Remove(c.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}

	return nil
}
