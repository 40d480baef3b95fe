// Package spi defines the contract between the host and pluggable query
// translators. The host looks translators up by name, creates them from a
// property map, and hands each call a similarity searcher borrowed from its
// own graph connection.
package spi

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// SimilaritySearcher runs a nearest-neighbour query against a vector index.
// The host owns the underlying connection; implementations open and release
// any per-query resources (sessions, statements) inside Search.
type SimilaritySearcher interface {
	// Search returns the content of the matched items ordered by descending
	// similarity score.
	Search(ctx context.Context, indexName string, embedding []float32) ([]string, error)
}

// Translator converts free text into a structured query.
type Translator interface {
	// Translate returns the structured query for input, or input unchanged
	// when the translator is not addressed.
	Translate(ctx context.Context, input string, searcher SimilaritySearcher) (string, error)
}

// Factory creates translators from host-supplied properties.
type Factory interface {
	// Name is the fixed, human-readable name the host looks the factory up by.
	Name() string
	// Create builds a translator from props.
	Create(props map[string]any) (Translator, error)
}

var (
	// mu guards factories.
	mu sync.RWMutex
	// factories maps factory names to registered factories.
	factories = make(map[string]Factory)
)

// Register makes f discoverable under f.Name(). Registering a second factory
// under the same name is an error.
func Register(f Factory) error {
	if f == nil {
		return fmt.Errorf("spi: factory must not be nil")
	}
	mu.Lock()
	defer mu.Unlock()
	name := f.Name()
	if _, dup := factories[name]; dup {
		return fmt.Errorf("spi: factory %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Names returns the registered factory names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create looks up the factory registered under name and builds a translator.
func Create(name string, props map[string]any) (Translator, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("spi: no translator factory named %q", name)
	}
	t, err := f.Create(props)
	if err != nil {
		return nil, fmt.Errorf("spi: create %q: %w", name, err)
	}
	return t, nil
}

// unregister removes a factory. Used by tests to keep the registry hermetic.
func unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(factories, name)
}
