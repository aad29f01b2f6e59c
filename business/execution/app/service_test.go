package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arb "crossarb/business/arbitrage/domain"
	"crossarb/business/execution/domain"
	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type stubTrader struct {
	result domain.Result
	err    error
	calls  int
}

func (t *stubTrader) Execute(context.Context, arb.Opportunity) (domain.Result, error) {
	t.calls++
	return t.result, t.err
}

func testLoggerAndStore(t *testing.T) (*memory.Store, arb.Opportunity) {
	t.Helper()
	s := memory.New(0)
	opp := arb.Opportunity{
		ID:         uuid.New(),
		Instrument: market.Instrument{Base: "ETH", Quote: "USDT"},
		BuyVenue:   "alpha",
		SellVenue:  "bravo",
		BuyPrice:   decimal.NewFromInt(100),
		SellPrice:  decimal.NewFromInt(105),
		NetProfit:  decimal.NewFromInt(4),
		Status:     arb.StatusPending,
	}
	require.NoError(t, s.SaveOpportunity(context.Background(), opp))
	return s, opp
}

func TestService_SuccessfulExecution(t *testing.T) {
	s, opp := testLoggerAndStore(t)
	trader := &stubTrader{result: domain.Result{
		Outcome:       domain.OutcomeSuccess,
		SettlementRef: "0xabc",
		ActualProfit:  decimal.RequireFromString("3.8"),
	}}

	result, err := NewService(s, trader, testLogger()).Execute(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "0xabc", result.SettlementRef)

	stored, err := s.Opportunity(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, arb.StatusCompleted, stored.Status)
}

func TestService_TraderErrorMarksFailed(t *testing.T) {
	s, opp := testLoggerAndStore(t)
	trader := &stubTrader{err: apperror.New(apperror.CodeExecutionFailed)}

	result, err := NewService(s, trader, testLogger()).Execute(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
	assert.NotEmpty(t, result.FailureReason)

	stored, err := s.Opportunity(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, arb.StatusFailed, stored.Status)
}

func TestService_UnknownOpportunity(t *testing.T) {
	s, _ := testLoggerAndStore(t)
	trader := &stubTrader{}

	_, err := NewService(s, trader, testLogger()).Execute(context.Background(), uuid.New())
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
	assert.Zero(t, trader.calls)
}

func TestService_RejectsDoubleExecution(t *testing.T) {
	s, opp := testLoggerAndStore(t)
	trader := &stubTrader{result: domain.Result{Outcome: domain.OutcomeSuccess}}
	svc := NewService(s, trader, testLogger())

	_, err := svc.Execute(context.Background(), opp.ID)
	require.NoError(t, err)

	// The opportunity is terminal now; a second run must not reach the trader.
	_, err = svc.Execute(context.Background(), opp.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeStatusTransition))
	assert.Equal(t, 1, trader.calls)
}
