package template

import (
	"path/filepath"
	"sort"
	"sync"
)

// Store is a concurrency-safe name to Template map.  Writers swap whole
// entries, so a reader always sees either the old or the new template.
type Store struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewStore returns a store holding the given templates.
func NewStore(templates ...Template) *Store {
	var s = &Store{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		s.templates[t.Name] = t
	}
	return s
}

// Get returns the template of the given name.
func (s *Store) Get(name string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	return t, ok
}

// Put adds or replaces a template.
func (s *Store) Put(t Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.templates == nil {
		s.templates = make(map[string]Template)
	}
	s.templates[t.Name] = t
}

// Delete removes the named template, reporting whether it was present.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.templates[name]
	delete(s.templates, name)
	return ok
}

// Names returns the template names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	var names = make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// ByFile returns the template loaded from the given file.
func (s *Store) ByFile(file string) (Template, bool) {
	if file == "" {
		return Template{}, false
	}
	file = filepath.Clean(file)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.File != "" && filepath.Clean(t.File) == file {
			return t, true
		}
	}
	return Template{}, false
}
