// Package checkpoint persists the per-company ingestion cursor between runs.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File is a durable company→document-id map. Its presence on disk at startup
// means the previous run did not complete; a clean full pass removes it.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Exists reports whether a checkpoint from an earlier run is on disk.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads the cursor map. A missing file is an empty map, not an error.
func (f *File) Load() (map[string]int64, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint %s: %w", f.path, err)
	}
	cursors := map[string]int64{}
	if err := json.Unmarshal(raw, &cursors); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", f.path, err)
	}
	return cursors, nil
}

// Save writes the cursor map durably: marshal to a temp file in the same
// directory, then rename over the target so a crash mid-write never leaves a
// truncated checkpoint.
func (f *File) Save(cursors map[string]int64) error {
	raw, err := json.MarshalIndent(cursors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint, marking the run as fully complete. A missing
// file is fine.
func (f *File) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
