package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// documents stores one JSON file per record under root/dir.
type documents[T any] struct {
	mu   sync.RWMutex
	root string
	dir  string
}

func (d *documents[T]) path(id string) string {
	return filepath.Clean(path.Join(d.root, d.dir, id+".json"))
}

func (d *documents[T]) all() ([]*T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	root := os.DirFS(path.Join(d.root, d.dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", d.dir, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		body, err := fs.ReadFile(root, file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		var record T

		err = json.Unmarshal(body, &record)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", file, err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (d *documents[T]) get(id string) (*T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	body, err := os.ReadFile(d.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch %s %s: %w", d.dir, id, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", d.dir, id, err)
	}

	return &record, nil
}

// put writes through a temporary file so readers never observe a partial document.
func (d *documents[T]) put(id string, record *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.MkdirAll(path.Join(d.root, d.dir), 0750)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", d.dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", d.dir, id, err)
	}

	target := d.path(id)
	tmp := target + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", d.dir, id, err)
	}

	err = os.Rename(tmp, target)
	if err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("failed to store %s %s: %w", d.dir, id, err)
	}

	return nil
}

func (d *documents[T]) remove(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s %s: %w", d.dir, id, err)
	}

	return nil
}
