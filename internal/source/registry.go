package source

import (
	"fmt"
	"sort"
)

// Constructor is a function that creates a new Source instance.
type Constructor func() Source

var registry = map[string]Constructor{}

// Register adds a source constructor under the given provider name.
// Providers call this from init, so registration needs no locking.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the source constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source provider: %s", name)
	}
	return ctor, nil
}

// Providers returns the registered provider names in sorted order, so
// error messages and usage text list them deterministically.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
