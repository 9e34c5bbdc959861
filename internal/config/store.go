package config

import "sync"

// Store guards the live configuration shared between the settings API and
// the pipeline. The pipeline only ever sees immutable snapshots.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewStore loads (or creates) the config at path and wraps it.
func NewStore(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cfg: cfg}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Snapshot derives the immutable per-cycle view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Snapshot()
}

// Replace swaps in a new configuration and persists it.
func (s *Store) Replace(cfg *Config) error {
	cfg.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := Save(s.path, cfg); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// Update applies fn to a copy of the configuration, persists the result and
// swaps it in.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cfg
	fn(&next)
	next.Normalize()

	if err := Save(s.path, &next); err != nil {
		return err
	}
	s.cfg = &next
	return nil
}
