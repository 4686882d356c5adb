// Package overrides persists per-bundle display-name overrides in a YAML
// file. Overrides change only what is presented and what the menu entry
// shows; ids and on-disk artifact names are never affected, so listing
// stays a pure reconstruction from storage contents.
package overrides

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// file is the root YAML structure.
type file struct {
	Names map[string]string `yaml:"names"`
}

// Store persists display-name overrides.
type Store struct {
	path string
}

// New creates a store backed by the YAML file at path.
func New(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// DefaultPath returns the default overrides file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "axec", "names.yaml")
}

// Load returns all overrides keyed by bundle id. A missing file means no
// overrides.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Names == nil {
		return map[string]string{}, nil
	}
	return f.Names, nil
}

// Set stores a display name for id. An empty name clears the override.
func (s *Store) Set(id, name string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("id is required")
	}

	names, err := s.Load()
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		delete(names, id)
	} else {
		names[id] = name
	}
	return s.save(names)
}

// Get returns the override for id, or "" when none is set.
func (s *Store) Get(id string) (string, error) {
	names, err := s.Load()
	if err != nil {
		return "", err
	}
	return names[id], nil
}

func (s *Store) save(names map[string]string) error {
	data, err := yaml.Marshal(file{Names: names})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
