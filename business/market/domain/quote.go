package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"crossarb/internal/apperror"
)

// Quote is one venue's view of one instrument, produced fresh each scan
// cycle and discarded after opportunity extraction. A zero Bid or Ask
// means the venue did not report that side.
type Quote struct {
	Venue      string
	Instrument Instrument
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	Last       decimal.Decimal
	Volume     decimal.Decimal
	ObservedAt time.Time
}

// HasBid reports whether the quote carries a usable bid.
func (q Quote) HasBid() bool {
	return q.Bid.IsPositive()
}

// HasAsk reports whether the quote carries a usable ask. Zero and negative
// asks are unusable: they would divide a later percentage by zero.
func (q Quote) HasAsk() bool {
	return q.Ask.IsPositive()
}

// Validate rejects quotes that carry neither side or a crossed book.
func (q Quote) Validate() error {
	if !q.HasBid() && !q.HasAsk() {
		return apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithContext("quote reports neither bid nor ask"))
	}
	if q.HasBid() && q.HasAsk() && q.Bid.GreaterThan(q.Ask) {
		return apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithContext("bid above ask"))
	}
	return nil
}

// QuoteKey addresses one venue/instrument cell of a cycle's quote table.
type QuoteKey struct {
	Venue      string
	Instrument Instrument
}

// QuoteTable is the working set of one scan cycle.
type QuoteTable map[QuoteKey]Quote
