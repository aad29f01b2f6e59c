// Package app coordinates opportunity execution: it owns the status
// transitions in storage and delegates the actual trade to a Trader.
package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	arb "crossarb/business/arbitrage/domain"
	"crossarb/business/execution/domain"
)

// Trader performs the trade for one opportunity.
type Trader interface {
	Execute(ctx context.Context, opp arb.Opportunity) (domain.Result, error)
}

// Store is the slice of the storage contract execution needs.
type Store interface {
	Opportunity(ctx context.Context, id uuid.UUID) (arb.Opportunity, error)
	UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, next arb.Status) error
}

// Service executes stored opportunities. The scan loop never calls this;
// execution is always an explicit external request.
type Service struct {
	store  Store
	trader Trader
	logger *slog.Logger
}

// NewService creates an execution service.
func NewService(store Store, trader Trader, logger *slog.Logger) *Service {
	return &Service{store: store, trader: trader, logger: logger}
}

// Execute runs one opportunity through its lifecycle. The status moves to
// processing before the trade and to completed or failed after; a trade
// error is reported in the result, not as a service error, once the
// opportunity has entered processing.
func (s *Service) Execute(ctx context.Context, id uuid.UUID) (domain.Result, error) {
	opp, err := s.store.Opportunity(ctx, id)
	if err != nil {
		return domain.Result{}, err
	}

	if err := s.store.UpdateOpportunityStatus(ctx, id, arb.StatusProcessing); err != nil {
		return domain.Result{}, err
	}

	result, err := s.trader.Execute(ctx, opp)
	if err != nil {
		result = domain.Result{
			Outcome:       domain.OutcomeFailed,
			FailureReason: err.Error(),
		}
	}

	final := arb.StatusCompleted
	if result.Outcome != domain.OutcomeSuccess {
		final = arb.StatusFailed
	}
	if err := s.store.UpdateOpportunityStatus(ctx, id, final); err != nil {
		return result, err
	}

	s.logger.Info("opportunity executed",
		"id", id,
		"instrument", opp.Instrument.Symbol(),
		"outcome", result.Outcome,
		"settlement_ref", result.SettlementRef)
	return result, nil
}
