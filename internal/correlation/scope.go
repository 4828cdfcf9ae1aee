package correlation

import "sync"

// Scope holds the variables of one test run. Producers record correlation
// keys in it so consumers running in the same scope can find them by name.
type Scope struct {
	mu   sync.Mutex
	vars map[string]string
}

// NewScope returns an empty Scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]string)}
}

// Set records value under name, replacing any earlier value.
func (s *Scope) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	s.vars[name] = value
}

// Get returns the value recorded under name.
func (s *Scope) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[name]
	return v, ok
}
