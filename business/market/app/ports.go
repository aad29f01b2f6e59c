// Package app contains application services and port definitions for the
// market context.
package app

import (
	"context"
	"sort"
	"sync"

	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

// VenueClient is the capability every venue implementation provides:
// quoting one instrument.
type VenueClient interface {
	// Name returns the venue name used in quote tables and opportunities.
	Name() string

	// Quote fetches the venue's current view of the instrument. Errors are
	// local to the venue/instrument pair; callers continue with other
	// venues.
	Quote(ctx context.Context, inst domain.Instrument) (domain.Quote, error)
}

// ClientFactory builds a VenueClient from its configuration.
type ClientFactory func(cfg domain.VenueConfig) (VenueClient, error)

// ClientRegistry maps venue kinds to constructors and caches one client
// per venue name, so per-process initialization (exchange market loading)
// happens once.
type ClientRegistry struct {
	mu        sync.Mutex
	factories map[domain.VenueKind]ClientFactory
	clients   map[string]VenueClient
}

// NewClientRegistry creates an empty registry.
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		factories: make(map[domain.VenueKind]ClientFactory),
		clients:   make(map[string]VenueClient),
	}
}

// RegisterKind binds a venue kind to its constructor.
func (r *ClientRegistry) RegisterKind(kind domain.VenueKind, f ClientFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// ClientFor returns the client for a venue config, constructing and caching
// it on first use. Unregistered kinds fail with CodeVenueUnsupported.
func (r *ClientRegistry) ClientFor(cfg domain.VenueConfig) (VenueClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[cfg.Name]; ok {
		return c, nil
	}

	f, ok := r.factories[cfg.Kind]
	if !ok {
		return nil, apperror.New(apperror.CodeVenueUnsupported,
			apperror.WithContext(string(cfg.Kind)))
	}

	c, err := f(cfg)
	if err != nil {
		return nil, err
	}
	r.clients[cfg.Name] = c
	return c, nil
}

// Kinds returns the registered venue kinds in sorted order.
func (r *ClientRegistry) Kinds() []domain.VenueKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]domain.VenueKind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
