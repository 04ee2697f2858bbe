package media

import (
	"github.com/zondarr/zondarr-api/models"
)

// Factory builds one client instance scoped to a single saga or
// reconciliation call
type Factory func(params ConnectionParams) Client

// Registry maps server types to client factories. It is populated once at
// process start, is read-only afterwards and therefore safe for concurrent
// Resolve calls. It holds no credentials and caches no client instances.
type Registry struct {
	factories map[models.ServerType]Factory
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[models.ServerType]Factory)}
}

// NewDefaultRegistry returns a registry with every built-in client variant
// registered
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(models.ServerTypeJellyfin, NewJellyfinClient)
	r.Register(models.ServerTypeEmby, NewEmbyClient)
	r.Register(models.ServerTypePlex, NewPlexClient)
	return r
}

// Register associates a client factory with a server type, replacing any
// previous registration. Call only during startup, before the registry is
// shared.
func (r *Registry) Register(serverType models.ServerType, factory Factory) {
	r.factories[serverType] = factory
}

// Resolve builds a client for the given server type and connection
// parameters. Returns *UnknownServerTypeError when no variant is registered.
func (r *Registry) Resolve(serverType models.ServerType, params ConnectionParams) (Client, error) {
	factory, ok := r.factories[serverType]
	if !ok {
		return nil, &UnknownServerTypeError{ServerType: string(serverType)}
	}
	return factory(params), nil
}

// Capabilities returns the declared capability set for a server type without
// performing any I/O
func (r *Registry) Capabilities(serverType models.ServerType) ([]Capability, error) {
	factory, ok := r.factories[serverType]
	if !ok {
		return nil, &UnknownServerTypeError{ServerType: string(serverType)}
	}
	c := factory(ConnectionParams{})
	defer c.Close()
	return c.Capabilities(), nil
}
