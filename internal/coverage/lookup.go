// Package coverage discovers which representatives' districts cover each
// zip code and records the links as person-area associations.
package coverage

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/EmpoweredVote/EV-Civics/internal/area"
)

// Lookup answers "who represents this point". Implementations return person
// ids; order does not matter.
type Lookup interface {
	Name() string
	Representatives(ctx context.Context, p area.Point) ([]string, error)
}

// Backend names a registered Lookup implementation.
type Backend string

const (
	BackendOpenStates Backend = "openstates"
	BackendPostGIS    Backend = "postgis"
)

var (
	ErrUnknownBackend = eris.New("coverage: unknown lookup backend")
	ErrBackendConfig  = eris.New("coverage: lookup backend misconfigured")
)

// Config selects and wires a lookup backend.
type Config struct {
	Backend Backend
	// GeoClient serves the openstates backend.
	GeoClient GeoClient
	// Pool serves the postgis backend.
	Pool Querier
	// CacheTTL above zero memoizes identical points.
	CacheTTL time.Duration
}

var registry = make(map[Backend]func(Config) (Lookup, error))

// Register makes a backend constructor available to NewLookup. Backends
// register themselves from init.
func Register(b Backend, constructor func(Config) (Lookup, error)) {
	registry[b] = constructor
}

// NewLookup builds the configured backend, wrapped in a cache when asked.
func NewLookup(cfg Config) (Lookup, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendOpenStates
	}
	constructor, ok := registry[cfg.Backend]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownBackend, "coverage: %q", cfg.Backend)
	}
	l, err := constructor(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheTTL > 0 {
		l = NewCachedLookup(l, cfg.CacheTTL)
	}
	return l, nil
}
