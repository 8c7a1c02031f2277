package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists generated projects under an identifier. The pipeline's
// save phase and modification-by-id go through this interface so
// persistence stays injectable.
type Store interface {
	Save(p map[string]any, id string) error
	Load(id string) (map[string]any, error)
}

// DirStore writes projects below a root directory: project.json alongside
// the expanded files tree.
type DirStore struct {
	Root string
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Root: dir}
}

// Save writes <root>/<id>/project.json and the files tree under
// <root>/<id>/project/.
func (s *DirStore) Save(p map[string]any, id string) error {
	dest := filepath.Join(s.Root, id)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(map[string]any{"project": p}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, "project.json"), data, 0o644); err != nil {
		return fmt.Errorf("write project.json: %w", err)
	}

	if _, err := SaveFiles(p, filepath.Join(dest, "project")); err != nil {
		return fmt.Errorf("save project files: %w", err)
	}
	return nil
}

// Load reads back a project saved under id.
func (s *DirStore) Load(id string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(s.Root, id, "project.json"))
	if err != nil {
		return nil, fmt.Errorf("read project.json: %w", err)
	}

	var wrapper struct {
		Project map[string]any `json:"project"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("decode project.json: %w", err)
	}
	if wrapper.Project == nil {
		return nil, fmt.Errorf("project.json has no project object")
	}
	return wrapper.Project, nil
}
