package selection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store remembers the last project selection per workspace and action in
// <stateDir>/selected.json
type Store struct {
	path string
	mu   sync.Mutex
}

// document maps workspace root -> action -> project identifiers
type document map[string]map[string][]string

// NewStore creates a selection store below stateDir
func NewStore(stateDir string) (*Store, error) {
	if stateDir == "" {
		return nil, fmt.Errorf("state directory cannot be empty")
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{path: filepath.Join(stateDir, "selected.json")}, nil
}

// Load returns the saved identifiers for an action in a workspace, or nil.
func (s *Store) Load(root, action string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc[root][action], nil
}

// Save replaces the saved identifiers for an action in a workspace.
func (s *Store) Save(root, action string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if doc[root] == nil {
		doc[root] = make(map[string][]string)
	}
	doc[root][action] = append([]string{}, ids...)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write selection file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write selection file: %w", err)
	}
	return nil
}

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{}, nil
		}
		return nil, fmt.Errorf("failed to read selection file: %w", err)
	}

	doc := document{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	// A literal null decodes to a nil map
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}
