package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnavailable signals that a reference record could not be resolved in
// any data directory. Combat math cannot proceed without base data, so
// callers are expected to abort the current invocation on this error.
var ErrUnavailable = errors.New("reference data unavailable")

// Loader reads species, move, and type records from the read-only data
// layer. Reference data is immutable, so resolved records are cached
// without bound for the life of the process.
type Loader struct {
	dataDirs []string

	mu      sync.RWMutex
	species map[string]*Species
	moves   map[string]*Move
	types   map[string]*TypeRelations
}

// NewLoader initializes a Loader with the given data directory fallback
// hierarchy. Earlier directories shadow later ones.
func NewLoader(dataDirs []string) *Loader {
	return &Loader{
		dataDirs: dataDirs,
		species:  make(map[string]*Species),
		moves:    make(map[string]*Move),
		types:    make(map[string]*TypeRelations),
	}
}

// Species resolves a species record by its index name (e.g. "bulbasaur").
func (l *Loader) Species(name string) (*Species, error) {
	key := slug(name)

	l.mu.RLock()
	if s, ok := l.species[key]; ok {
		l.mu.RUnlock()
		return s, nil
	}
	l.mu.RUnlock()

	var s Species
	if err := l.load(filepath.Join("species", key+".yaml"), &s); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.species[key] = &s
	l.mu.Unlock()
	return &s, nil
}

// Move resolves a move record by its index name (e.g. "razor-leaf").
func (l *Loader) Move(name string) (*Move, error) {
	key := slug(name)

	l.mu.RLock()
	if m, ok := l.moves[key]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	var m Move
	if err := l.load(filepath.Join("moves", key+".yaml"), &m); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.moves[key] = &m
	l.mu.Unlock()
	return &m, nil
}

// Type resolves the damage relations of an attacking elemental type.
func (l *Loader) Type(name string) (*TypeRelations, error) {
	key := slug(name)

	l.mu.RLock()
	if t, ok := l.types[key]; ok {
		l.mu.RUnlock()
		return t, nil
	}
	l.mu.RUnlock()

	var t TypeRelations
	if err := l.load(filepath.Join("types", key+".yaml"), &t); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.types[key] = &t
	l.mu.Unlock()
	return &t, nil
}

func (l *Loader) load(ref string, target interface{}) error {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, ref)
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			decoder := yaml.NewDecoder(f)
			if err := decoder.Decode(target); err != nil {
				return fmt.Errorf("failed to decode yaml reference %s: %w", ref, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s not found in any data directory", ErrUnavailable, ref)
}

func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}
