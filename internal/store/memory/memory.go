// Package memory is an in-process Store used for development runs and
// tests. All state is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	arb "crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/store"
)

// Ensure the full contract is met.
var _ store.Store = (*Store)(nil)

// Store keeps everything behind one mutex. Opportunities are held in
// insertion order so retention can evict oldest first.
type Store struct {
	mu          sync.Mutex
	settings    market.ScanSettings
	hasSettings bool
	venues      map[string]market.VenueConfig
	instruments map[market.Instrument]bool
	opps        []arb.Opportunity
	retention   int
}

// New creates an empty store. A non-positive retention falls back to
// store.DefaultRetention.
func New(retention int) *Store {
	if retention <= 0 {
		retention = store.DefaultRetention
	}
	return &Store{
		venues:      make(map[string]market.VenueConfig),
		instruments: make(map[market.Instrument]bool),
		retention:   retention,
	}
}

// Settings implements store.Store.
func (s *Store) Settings(context.Context) (market.ScanSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSettings {
		return market.DefaultScanSettings(), nil
	}
	return s.settings, nil
}

// UpdateSettings implements store.Store.
func (s *Store) UpdateSettings(_ context.Context, settings market.ScanSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.hasSettings = true
	return nil
}

// ActiveVenues implements store.Store. Venues are returned in name order.
func (s *Store) ActiveVenues(context.Context) ([]market.VenueConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []market.VenueConfig
	for _, v := range s.venues {
		if v.Active {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ActiveInstruments implements store.Store.
func (s *Store) ActiveInstruments(context.Context) ([]market.Instrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []market.Instrument
	for inst, active := range s.instruments {
		if active {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol() < out[j].Symbol() })
	return out, nil
}

// UpsertVenue implements store.Store.
func (s *Store) UpsertVenue(_ context.Context, venue market.VenueConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.venues[venue.Name] = venue
	return nil
}

// UpsertInstrument implements store.Store.
func (s *Store) UpsertInstrument(_ context.Context, inst market.Instrument, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruments[inst] = active
	return nil
}

// SaveOpportunity implements store.Store.
func (s *Store) SaveOpportunity(_ context.Context, opp arb.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opps = append(s.opps, opp)
	if excess := len(s.opps) - s.retention; excess > 0 {
		s.opps = append([]arb.Opportunity(nil), s.opps[excess:]...)
	}
	return nil
}

// Opportunity implements store.Store.
func (s *Store) Opportunity(_ context.Context, id uuid.UUID) (arb.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, opp := range s.opps {
		if opp.ID == id {
			return opp, nil
		}
	}
	return arb.Opportunity{}, apperror.New(apperror.CodeNotFound,
		apperror.WithContext("opportunity "+id.String()))
}

// RecentOpportunities implements store.Store. Newest first.
func (s *Store) RecentOpportunities(_ context.Context, limit int) ([]arb.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.opps)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]arb.Opportunity, 0, n)
	for i := len(s.opps) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.opps[i])
	}
	return out, nil
}

// UpdateOpportunityStatus implements store.Store.
func (s *Store) UpdateOpportunityStatus(_ context.Context, id uuid.UUID, next arb.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.opps {
		if s.opps[i].ID != id {
			continue
		}
		return s.opps[i].Transition(next)
	}
	return apperror.New(apperror.CodeNotFound,
		apperror.WithContext("opportunity "+id.String()))
}

// Close implements store.Store.
func (s *Store) Close() {}
