package app

import (
	"context"

	"crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
)

// Store is the storage collaborator the scan loop reads configuration from
// and hands qualifying opportunities to.
type Store interface {
	Settings(ctx context.Context) (market.ScanSettings, error)
	ActiveVenues(ctx context.Context) ([]market.VenueConfig, error)
	ActiveInstruments(ctx context.Context) ([]market.Instrument, error)
	SaveOpportunity(ctx context.Context, opp domain.Opportunity) error
}

// QuoteSource produces one cycle's quote table.
type QuoteSource interface {
	Aggregate(ctx context.Context, venues []market.VenueConfig, instruments []market.Instrument) market.QuoteTable
}
