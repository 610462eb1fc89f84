package platform

import (
	"fmt"
	"sort"
	"sync"

	"brandpatrol/internal/workflow"
)

var (
	registry = make(map[string]workflow.Definition)
	mu       sync.RWMutex
)

// Register makes a reporting workflow available under the given platform id.
// Later registrations replace earlier ones.
func Register(name string, def workflow.Definition) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = def
}

// Get returns the reporting workflow for a platform id.
func Get(name string) (workflow.Definition, error) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := registry[name]
	if !ok {
		return workflow.Definition{}, fmt.Errorf("platform %q not registered", name)
	}
	return def, nil
}

// List returns the registered platform ids in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
