package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arb "crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

func newOpportunity() arb.Opportunity {
	return arb.Opportunity{
		ID:         uuid.New(),
		Instrument: market.Instrument{Base: "ETH", Quote: "USDT"},
		BuyVenue:   "alpha",
		SellVenue:  "bravo",
		BuyPrice:   decimal.NewFromInt(100),
		SellPrice:  decimal.NewFromInt(105),
		Status:     arb.StatusPending,
		CreatedAt:  time.Now(),
	}
}

func TestStore_SettingsDefaultUntilUpdated(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, market.DefaultScanSettings(), got)

	updated := got
	updated.ScanInterval = 7 * time.Second
	updated.UseLeverage = true
	require.NoError(t, s.UpdateSettings(ctx, updated))

	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestStore_ActiveVenuesFiltersAndSorts(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	require.NoError(t, s.UpsertVenue(ctx, market.VenueConfig{Name: "kraken", Kind: market.VenueKindExchange, Active: true}))
	require.NoError(t, s.UpsertVenue(ctx, market.VenueConfig{Name: "binance", Kind: market.VenueKindExchange, Active: true}))
	require.NoError(t, s.UpsertVenue(ctx, market.VenueConfig{Name: "dormant", Kind: market.VenueKindExchange, Active: false}))

	venues, err := s.ActiveVenues(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "binance", venues[0].Name)
	assert.Equal(t, "kraken", venues[1].Name)
}

func TestStore_InstrumentDeactivation(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	inst := market.Instrument{Base: "BTC", Quote: "USDT"}

	require.NoError(t, s.UpsertInstrument(ctx, inst, true))
	insts, err := s.ActiveInstruments(ctx)
	require.NoError(t, err)
	assert.Len(t, insts, 1)

	require.NoError(t, s.UpsertInstrument(ctx, inst, false))
	insts, err = s.ActiveInstruments(ctx)
	require.NoError(t, err)
	assert.Empty(t, insts)
}

func TestStore_RetentionEvictsOldest(t *testing.T) {
	s := New(3)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		opp := newOpportunity()
		ids = append(ids, opp.ID)
		require.NoError(t, s.SaveOpportunity(ctx, opp))
	}

	recent, err := s.RecentOpportunities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first; the two oldest saves are gone.
	assert.Equal(t, ids[4], recent[0].ID)
	assert.Equal(t, ids[2], recent[2].ID)

	_, err = s.Opportunity(ctx, ids[0])
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestStore_RecentOpportunitiesLimit(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, s.SaveOpportunity(ctx, newOpportunity()))
	}

	recent, err := s.RecentOpportunities(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestStore_UpdateOpportunityStatus(t *testing.T) {
	s := New(0)
	ctx := context.Background()
	opp := newOpportunity()
	require.NoError(t, s.SaveOpportunity(ctx, opp))

	require.NoError(t, s.UpdateOpportunityStatus(ctx, opp.ID, arb.StatusProcessing))
	require.NoError(t, s.UpdateOpportunityStatus(ctx, opp.ID, arb.StatusCompleted))

	got, err := s.Opportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, arb.StatusCompleted, got.Status)

	// Terminal states reject further moves.
	err = s.UpdateOpportunityStatus(ctx, opp.ID, arb.StatusFailed)
	assert.True(t, apperror.IsCode(err, apperror.CodeStatusTransition))

	err = s.UpdateOpportunityStatus(ctx, uuid.New(), arb.StatusProcessing)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}
