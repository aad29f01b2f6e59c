package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MinScanInterval is the floor applied to the configured interval so a
// misconfigured value can never produce a busy loop.
const MinScanInterval = 500 * time.Millisecond

// ScanSettings is the process-wide scanner configuration. The scan loop
// reads one snapshot per cycle; a cycle never observes a mid-cycle change.
type ScanSettings struct {
	ScanInterval       time.Duration
	MinProfitThreshold decimal.Decimal // net profit percentage
	SettlementCeiling  decimal.Decimal // zero disables the ceiling
	UseLeverage        bool
	TradeAmount        decimal.Decimal // base units per simulated trade
}

// DefaultScanSettings mirrors the defaults the scanner boots with before
// any stored settings exist.
func DefaultScanSettings() ScanSettings {
	return ScanSettings{
		ScanInterval:       3 * time.Second,
		MinProfitThreshold: decimal.NewFromFloat(0.5),
		TradeAmount:        decimal.NewFromInt(1),
	}
}

// EffectiveInterval returns the scan interval with the floor applied.
func (s ScanSettings) EffectiveInterval() time.Duration {
	if s.ScanInterval < MinScanInterval {
		return MinScanInterval
	}
	return s.ScanInterval
}

// EffectiveTradeAmount guards against a zero trade amount from storage.
func (s ScanSettings) EffectiveTradeAmount() decimal.Decimal {
	if s.TradeAmount.IsPositive() {
		return s.TradeAmount
	}
	return decimal.NewFromInt(1)
}
