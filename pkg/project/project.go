// Package project defines the generated-project shape and its on-disk
// persistence. A project is an opaque JSON object; the only structure this
// package relies on is the "files" mapping of path → content.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Normalize accepts the three shapes models return a project in and reduces
// them to the inner project object:
//
//  1. {"project": {...}}
//  2. a list containing an object with a "project" key
//  3. the inner object itself, detected by the presence of "files"
//
// A "files" value given as a list of single-key objects is merged into one
// mapping; any other non-mapping "files" shape is an error.
func Normalize(v any) (map[string]any, error) {
	inner, err := innerProject(v)
	if err != nil {
		return nil, err
	}

	switch files := inner["files"].(type) {
	case map[string]any:
		// already the expected shape
	case []any:
		merged := make(map[string]any, len(files))
		for _, item := range files {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("project files list contains a non-object entry (%T)", item)
			}
			for k, val := range m {
				merged[k] = val
			}
		}
		inner["files"] = merged
	default:
		return nil, fmt.Errorf("project files must be an object, got %T", inner["files"])
	}

	return inner, nil
}

func innerProject(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		if p, ok := t["project"].(map[string]any); ok {
			return p, nil
		}
		if _, ok := t["files"]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("object has neither a project key nor a files key")
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				if p, ok := m["project"].(map[string]any); ok {
					return p, nil
				}
			}
		}
		return nil, fmt.Errorf("list contains no object with a project key")
	default:
		return nil, fmt.Errorf("unrecognized project shape %T", v)
	}
}

// SaveFiles writes every entry of the project's files mapping below dir,
// creating directories as needed. Non-string contents are written as
// indented JSON. Returns the number of files written.
func SaveFiles(p map[string]any, dir string) (int, error) {
	files, ok := p["files"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("project files must be an object")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create project dir: %w", err)
	}

	saved := 0
	for relPath, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return saved, fmt.Errorf("create dir for %q: %w", relPath, err)
		}

		var data []byte
		switch c := content.(type) {
		case string:
			data = []byte(c)
		default:
			b, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				return saved, fmt.Errorf("marshal content of %q: %w", relPath, err)
			}
			data = b
		}

		if err := os.WriteFile(fullPath, data, 0o644); err != nil {
			return saved, fmt.Errorf("write %q: %w", relPath, err)
		}
		saved++
	}
	return saved, nil
}
