package job

import (
	"errors"
	"sync"
)

// Registry errors
var (
	ErrHandlerNotFound = errors.New("handler not found")
	ErrHandlerExists   = errors.New("handler already registered")
)

// Registry manages job handlers
type Registry struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new job handler registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a job type
func (r *Registry) Register(jobType string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[jobType]; exists {
		return ErrHandlerExists
	}

	r.handlers[jobType] = handler
	return nil
}

// MustRegister adds a handler and panics on error
func (r *Registry) MustRegister(jobType string, handler Handler) {
	if err := r.Register(jobType, handler); err != nil {
		panic(err)
	}
}

// Get retrieves a handler for a job type
func (r *Registry) Get(jobType string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[jobType]
	if !exists {
		return nil, ErrHandlerNotFound
	}
	return handler, nil
}

// Types returns all registered job types
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
