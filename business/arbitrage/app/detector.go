// Package app runs the arbitrage pipeline: detect cross-venue gaps, price
// them, and drive the periodic scan loop.
package app

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
)

var hundred = decimal.NewFromInt(100)

// Detector finds the best buy/sell pairing per instrument in one cycle's
// quote table. Venues are always visited in lexicographic name order, so
// ties on identical prices resolve the same way on every run.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// Detect scans the table per instrument. Instruments quoted by fewer than
// two venues yield nothing. A gap is emitted only when the best bid strictly
// exceeds the best ask and the two sides come from different venues. Quotes
// without a positive ask never become the buy side.
func (d *Detector) Detect(table market.QuoteTable) []domain.RawOpportunity {
	byInstrument := make(map[market.Instrument]map[string]market.Quote)
	for key, quote := range table {
		venues, ok := byInstrument[key.Instrument]
		if !ok {
			venues = make(map[string]market.Quote)
			byInstrument[key.Instrument] = venues
		}
		venues[key.Venue] = quote
	}

	var found []domain.RawOpportunity
	for inst, venues := range byInstrument {
		if len(venues) < 2 {
			continue
		}

		names := make([]string, 0, len(venues))
		for name := range venues {
			names = append(names, name)
		}
		sort.Strings(names)

		var (
			buyVenue, sellVenue string
			buyAsk, sellBid     decimal.Decimal
		)
		for _, name := range names {
			quote := venues[name]
			if quote.HasAsk() && (buyVenue == "" || quote.Ask.LessThan(buyAsk)) {
				buyVenue, buyAsk = name, quote.Ask
			}
			if quote.HasBid() && (sellVenue == "" || quote.Bid.GreaterThan(sellBid)) {
				sellVenue, sellBid = name, quote.Bid
			}
		}

		if buyVenue == "" || sellVenue == "" || buyVenue == sellVenue {
			continue
		}
		if !sellBid.GreaterThan(buyAsk) {
			continue
		}

		spread := sellBid.Sub(buyAsk)
		raw := domain.RawOpportunity{
			Instrument:     inst,
			BuyVenue:       buyVenue,
			SellVenue:      sellVenue,
			BuyPrice:       buyAsk,
			SellPrice:      sellBid,
			GrossSpread:    spread,
			GrossSpreadPct: spread.Mul(hundred).Div(buyAsk),
		}
		found = append(found, raw)

		d.logger.Debug("price gap detected",
			"instrument", inst.Symbol(),
			"buy_venue", buyVenue,
			"sell_venue", sellVenue,
			"spread_pct", raw.GrossSpreadPct)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Instrument.Symbol() < found[j].Instrument.Symbol()
	})
	return found
}
