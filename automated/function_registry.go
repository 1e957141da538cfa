package automated

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a helper callable from rules.
type Function func(args ...any) (any, error)

// FunctionRegistry stores rule helpers. Lookups ignore case; rules see the
// name as registered.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]registeredFunction)}
}

// Register stores fn under name. Names are unique regardless of case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("automated: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("automated: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("automated: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]registeredFunction, len(r.functions))}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("automated: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("automated: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns the registered names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}
