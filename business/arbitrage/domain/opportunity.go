// Package domain holds the arbitrage entities: raw cross-venue price gaps
// and the priced opportunities derived from them.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

// Status is the execution lifecycle of a persisted opportunity. It moves
// strictly forward: pending, processing, then completed or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions enumerates the allowed forward moves.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// RawOpportunity is a detected cross-venue price gap before fees and costs
// are applied. The detector only constructs instances with a positive
// spread and distinct venues.
type RawOpportunity struct {
	Instrument     market.Instrument
	BuyVenue       string
	SellVenue      string
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	GrossSpread    decimal.Decimal
	GrossSpreadPct decimal.Decimal
}

// Opportunity is a priced arbitrage candidate ready for persistence. After
// the scan loop hands it to storage the scanner never mutates it again;
// status moves are driven by the executor.
type Opportunity struct {
	ID             uuid.UUID
	Instrument     market.Instrument
	BuyVenue       string
	SellVenue      string
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	GrossSpread    decimal.Decimal
	GrossSpreadPct decimal.Decimal

	TradeAmount            decimal.Decimal
	FeeEstimate            decimal.Decimal
	SettlementCostEstimate decimal.Decimal
	LeveragedCostEstimate  decimal.Decimal
	UseLeverage            bool
	NetProfit              decimal.Decimal
	NetProfitPct           decimal.Decimal

	Status    Status
	CreatedAt time.Time
}

// Transition moves the opportunity to the next status, rejecting backward
// or skipped moves.
func (o *Opportunity) Transition(next Status) error {
	if !o.Status.CanTransition(next) {
		return apperror.New(apperror.CodeStatusTransition,
			apperror.WithContext(string(o.Status)+" -> "+string(next)))
	}
	o.Status = next
	return nil
}
