// Package sink defines where extracted commit records go. A Sink receives
// fully assembled records one at a time; backends are registered by name and
// constructed through the registry.
package sink

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/githarvest/githarvest/pkg/model"
)

// ErrUnknownBackend is returned by New when no backend is registered under
// the requested name.
var ErrUnknownBackend = errors.New("unknown sink backend")

// Sink consumes commit records. Implementations are not required to be safe
// for concurrent use; the pipeline serializes AddCommit calls.
type Sink interface {
	// Name returns the backend name the sink was registered under.
	Name() string

	// AddCommit delivers one commit record.
	AddCommit(ctx context.Context, record *model.CommitRecord) error

	// Close flushes buffered state and releases resources.
	Close() error
}

// Config carries the settings shared by all backends. Each backend reads
// only the fields it needs.
type Config struct {
	// ProjectName identifies the repository being extracted.
	ProjectName string

	// ProjectURL is the origin URL or a local placeholder.
	ProjectURL string

	// Output is the target path for the file backend.
	Output string

	// Format selects the file encoding: "json" or "yaml".
	Format string

	// Compress enables lz4 compression of the file backend output.
	Compress bool

	// RedisAddr is the host:port of the redis backend.
	RedisAddr string

	// RedisPassword authenticates the redis connection when set.
	RedisPassword string

	// RedisDB selects the redis logical database.
	RedisDB int

	// BadgerDir is the directory for the badger backend. Empty selects an
	// in-memory store.
	BadgerDir string
}

// Factory constructs a sink from its configuration.
type Factory func(cfg Config) (Sink, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available under the given name. Later
// registrations under the same name replace earlier ones.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[name] = factory
}

// New constructs the backend registered under name.
func New(name string, cfg Config) (Sink, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}

	return factory(cfg)
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	return slices.Sorted(maps.Keys(factories))
}
