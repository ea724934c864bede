package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Export writes the snapshot as an indented JSON document to the given
// path, creating parent directories if needed. The written file is the
// same document the widget endpoints serve.
func Export(s Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("make parent dir: %w", err)
	}

	bts, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, bts, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// Load reads a snapshot document from the given path.
func Load(path string) (Snapshot, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read file: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(bts, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return s, nil
}
