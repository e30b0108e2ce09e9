package host

import (
	"sort"
	"sync"

	"github.com/kbukum/iotmarket/resolve"
)

// Setting keys installed on the host during bootstrap.
const (
	KeyHost           = "host"
	KeyPort           = "port"
	KeyRestAPIRoot    = "restApiRoot"
	KeyDBMemory       = "dbmemory"
	KeyDBMongo        = "dbmongo"
	KeyLegacyExplorer = "legacyExplorer"
	KeyBooting        = "booting"
)

// State is the host's key/value settings store. Every Set bumps the version,
// so readers can tell whether anything changed since they last looked.
type State struct {
	mu      sync.RWMutex
	values  map[string]any
	version uint64
}

var _ resolve.Source = (*State)(nil)

// NewState creates an empty store.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.version++
}

// Version counts the writes made so far.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Keys lists the stored keys, sorted.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every setting.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Name implements resolve.Source.
func (s *State) Name() string { return "host" }

// Lookup implements resolve.Source.
func (s *State) Lookup(key string) (any, bool) { return s.Get(key) }
