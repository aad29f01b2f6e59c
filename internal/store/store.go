// Package store defines the storage contract shared by the scanner, the
// executor, and any outer query surface. Implementations live in the
// memory and postgres subpackages.
package store

import (
	"context"

	"github.com/google/uuid"

	arb "crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
)

// DefaultRetention caps stored opportunities; saves beyond the cap evict
// the oldest rows first.
const DefaultRetention = 1000

// Store is the full storage surface. The scan loop consumes only the read
// side plus SaveOpportunity; status updates belong to the executor.
type Store interface {
	// Settings returns the current scanner settings, falling back to
	// defaults when none have been stored yet.
	Settings(ctx context.Context) (market.ScanSettings, error)
	UpdateSettings(ctx context.Context, settings market.ScanSettings) error

	ActiveVenues(ctx context.Context) ([]market.VenueConfig, error)
	ActiveInstruments(ctx context.Context) ([]market.Instrument, error)
	UpsertVenue(ctx context.Context, venue market.VenueConfig) error
	UpsertInstrument(ctx context.Context, inst market.Instrument, active bool) error

	// SaveOpportunity persists a new opportunity and applies the retention
	// cap, evicting oldest first.
	SaveOpportunity(ctx context.Context, opp arb.Opportunity) error
	Opportunity(ctx context.Context, id uuid.UUID) (arb.Opportunity, error)
	RecentOpportunities(ctx context.Context, limit int) ([]arb.Opportunity, error)

	// UpdateOpportunityStatus validates the transition against the current
	// stored status before writing.
	UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, next arb.Status) error

	Close()
}
