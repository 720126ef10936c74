package remote

import "sync"

// Resolver supplies a connection when the registry has none.
// It is called on every Default lookup; its result is not cached.
type Resolver func() *Connection

// Registry is a named table of connections.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Connection
	order    []string
	resolver Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Connect creates a connection and registers it under opts.Name.
func (r *Registry) Connect(endpoint string, opts Options) *Connection {
	c := NewConnection(endpoint, opts)
	r.Register(c)
	return c
}

// Register adds c, replacing any connection with the same name.
func (r *Registry) Register(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[c.Name()]; !exists {
		r.order = append(r.order, c.Name())
	}
	r.conns[c.Name()] = c
}

// Get returns the connection registered under name.
func (r *Registry) Get(name string) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[name]
	if !ok {
		return nil, &ConnectionError{Name: name}
	}
	return c, nil
}

// Default returns the connection named "default", else the first one
// registered, else whatever the resolver supplies.
func (r *Registry) Default() (*Connection, error) {
	r.mu.RLock()
	if c, ok := r.conns[DefaultName]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	if len(r.order) > 0 {
		c := r.conns[r.order[0]]
		r.mu.RUnlock()
		return c, nil
	}
	resolver := r.resolver
	r.mu.RUnlock()

	if resolver != nil {
		if c := resolver(); c != nil {
			return c, nil
		}
	}
	return nil, &ConnectionError{}
}

// SetResolver installs the fallback used by Default. Nil removes it.
func (r *Registry) SetResolver(fn Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolver = fn
}

// Remove drops the connection registered under name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[name]; !ok {
		return
	}
	delete(r.conns, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Reset removes every connection and the resolver.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns = make(map[string]*Connection)
	r.order = nil
	r.resolver = nil
}

// DefaultRegistry is the process-wide registry used when a backend is not
// given one explicitly.
var DefaultRegistry = NewRegistry()

// Connect registers a connection in DefaultRegistry.
func Connect(endpoint string, opts Options) *Connection {
	return DefaultRegistry.Connect(endpoint, opts)
}

// Default resolves the default connection of DefaultRegistry.
func Default() (*Connection, error) {
	return DefaultRegistry.Default()
}
