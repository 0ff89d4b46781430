package awssdk

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

var (
	// ErrClientNotRegistered indicates no client was built for a service key
	ErrClientNotRegistered = errors.New("awssdk: client not registered")

	// ErrUnexpectedClientType indicates the registered client has another type
	ErrUnexpectedClientType = errors.New("awssdk: unexpected client type")
)

// BuildError wraps a client construction failure for one service key
type BuildError struct {
	Key string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("awssdk build %q: %v", e.Key, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Registry holds one client per service key. Clients are registered once
// and shared by every consumer.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]any
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]any)}
}

// Register stores client under key. A key can be registered only once.
func (r *Registry) Register(key string, client any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[key]; exists {
		return fmt.Errorf("awssdk: client %q already registered", key)
	}
	r.clients[key] = client
	return nil
}

// Get returns the client registered under key
func (r *Registry) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[key]
	return c, ok
}

// Keys returns the registered service keys in sorted order
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.clients))
}

// Len returns the number of registered clients
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// S3 returns the S3 client registered under key
func (r *Registry) S3(key string) (*s3.Client, error) {
	return lookup[*s3.Client](r, key)
}

// STS returns the STS client registered under key
func (r *Registry) STS(key string) (*sts.Client, error) {
	return lookup[*sts.Client](r, key)
}

func lookup[T any](r *Registry, key string) (T, error) {
	var zero T

	c, ok := r.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrClientNotRegistered, key)
	}
	typed, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrUnexpectedClientType, key, c)
	}
	return typed, nil
}

// Close drops every registered client. The SDK clients hold no resources
// beyond idle connections, which the transport reclaims.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.clients)
	return nil
}
