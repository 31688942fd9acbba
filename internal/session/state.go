package session

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/worksets/internal/log"
)

// State is what autosave writes to the state file.
type State struct {
	Session       string            `yaml:"session"`
	ActiveWorkset string            `yaml:"active_workset"`
	Worksets      []string          `yaml:"worksets"`
	Windows       map[string]string `yaml:"windows,omitempty"`
	SavedAt       time.Time         `yaml:"saved_at"`
}

// Save writes the current state to the configured state file.
// An empty state file path only counts the save.
func (s *Session) Save() error {
	s.mu.Lock()
	st := State{
		Session:       s.id,
		ActiveWorkset: s.active,
		Worksets:      s.cfg.Worksets,
		Windows:       maps.Clone(s.windows),
		SavedAt:       time.Now().UTC(),
	}
	s.saves++
	path := s.cfg.StateFile
	s.mu.Unlock()

	if path == "" {
		return nil
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	log.Debug(log.CatSession, "State saved", "path", path, "windows", len(st.Windows))
	return nil
}

// LoadState reads a state file written by Save.
func LoadState(path string) (State, error) {
	var st State
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from user config
	if err != nil {
		return st, fmt.Errorf("reading state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decoding state file: %w", err)
	}
	return st, nil
}

// Restore seeds remembered window placements from st. Windows already known
// to the session keep their workset.
func (s *Session) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for title, ws := range st.Windows {
		if _, ok := s.windows[title]; !ok {
			s.windows[title] = ws
		}
	}
	log.Debug(log.CatSession, "State restored", "windows", len(st.Windows))
}
