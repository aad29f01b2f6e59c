// Package domain holds the execution outcome types.
package domain

import "github.com/shopspring/decimal"

// Outcome is the terminal result of one execution attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Result reports what happened to one opportunity. SettlementRef carries
// the on-chain transaction hash or an equivalent off-chain reference.
type Result struct {
	Outcome       Outcome
	SettlementRef string
	ActualProfit  decimal.Decimal
	FailureReason string
}
