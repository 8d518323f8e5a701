package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Path      string     `json:"path"`
	SystemDir string     `json:"system_dir"`
	Versioned bool       `json:"versioned"`
	ReadOnly  bool       `json:"read_only"`
	Writes    uint64     `json:"writes"`
	LastWrite *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Path:      s.Path,
		SystemDir: s.config.SystemDir,
		Versioned: s.config.Versioned,
		ReadOnly:  s.config.ReadOnly,
		Writes:    s.writes,
		LastWrite: s.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "notes-store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

// recordWrite is called with mu held.
func (s *Store) recordWrite() {
	s.writes++
	now := s.config.Now()
	s.lastWrite = &now
}
