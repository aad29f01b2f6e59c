package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

type stubStore struct {
	mu       sync.Mutex
	settings market.ScanSettings
	venues   []market.VenueConfig
	insts    []market.Instrument
	saved    []domain.Opportunity

	settingsErr error
	saveErr     error
}

func (s *stubStore) Settings(context.Context) (market.ScanSettings, error) {
	return s.settings, s.settingsErr
}

func (s *stubStore) ActiveVenues(context.Context) ([]market.VenueConfig, error) {
	return s.venues, nil
}

func (s *stubStore) ActiveInstruments(context.Context) ([]market.Instrument, error) {
	return s.insts, nil
}

func (s *stubStore) SaveOpportunity(_ context.Context, opp domain.Opportunity) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, opp)
	return nil
}

func (s *stubStore) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type stubSource struct {
	table market.QuoteTable

	entered  chan struct{} // closed when the first Aggregate begins
	release  chan struct{} // Aggregate blocks until closed, when non-nil
	enterOne sync.Once

	panicMsg string
}

func (s *stubSource) Aggregate(context.Context, []market.VenueConfig, []market.Instrument) market.QuoteTable {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.entered != nil {
		s.enterOne.Do(func() { close(s.entered) })
	}
	if s.release != nil {
		<-s.release
	}
	return s.table
}

// profitableTable yields a gap whose net profit clears the default
// threshold by a wide margin.
func profitableTable() market.QuoteTable {
	inst := market.Instrument{Base: "ETH", Quote: "USDT"}
	return tableOf(
		quote("alpha", inst, "99", "100"),
		quote("bravo", inst, "200", "201"),
	)
}

func newTestLoop(store *stubStore, source *stubSource) *ScanLoop {
	return NewScanLoop(store, source, NewDetector(testLogger()), NewProfitModel(), testLogger())
}

func TestScanLoop_CycleSavesQualifyingOpportunity(t *testing.T) {
	store := &stubStore{settings: market.DefaultScanSettings()}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	interval, err := loop.cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.settings.EffectiveInterval(), interval)

	require.Len(t, store.saved, 1)
	opp := store.saved[0]
	assert.Equal(t, "alpha", opp.BuyVenue)
	assert.Equal(t, "bravo", opp.SellVenue)
	assert.Equal(t, domain.StatusPending, opp.Status)
	assert.True(t, opp.NetProfitPct.GreaterThanOrEqual(store.settings.MinProfitThreshold))
}

func TestScanLoop_CycleFiltersBelowThreshold(t *testing.T) {
	settings := market.DefaultScanSettings()
	settings.MinProfitThreshold = decimal.NewFromInt(1000)
	store := &stubStore{settings: settings}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	_, err := loop.cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestScanLoop_CycleEnforcesSettlementCeiling(t *testing.T) {
	settings := market.DefaultScanSettings()
	settings.SettlementCeiling = decimal.NewFromInt(5) // estimate is 10
	store := &stubStore{settings: settings}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	_, err := loop.cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestScanLoop_CycleWrapsStoreErrors(t *testing.T) {
	store := &stubStore{
		settings:    market.DefaultScanSettings(),
		settingsErr: apperror.New(apperror.CodeStoreQuery),
	}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	_, err := loop.cycle(context.Background())
	assert.True(t, apperror.IsCode(err, apperror.CodeCycleFailed))
}

func TestScanLoop_CycleContainsPanics(t *testing.T) {
	store := &stubStore{settings: market.DefaultScanSettings()}
	loop := newTestLoop(store, &stubSource{panicMsg: "venue exploded"})

	_, err := loop.cycle(context.Background())
	assert.True(t, apperror.IsCode(err, apperror.CodeCycleFailed))
}

func TestScanLoop_StartIsIdempotent(t *testing.T) {
	store := &stubStore{settings: market.DefaultScanSettings()}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	loop.Start(context.Background())
	loop.Start(context.Background())
	assert.Equal(t, StateRunning, loop.State())

	loop.Stop()
	assert.Equal(t, StateIdle, loop.State())

	// Stopping an idle loop is also a no-op.
	loop.Stop()
	assert.Equal(t, StateIdle, loop.State())
}

func TestScanLoop_StopFinishesInFlightCycle(t *testing.T) {
	store := &stubStore{settings: market.DefaultScanSettings()}
	source := &stubSource{
		table:   profitableTable(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	loop := newTestLoop(store, source)

	loop.Start(context.Background())
	<-source.entered

	stopped := make(chan struct{})
	go func() {
		loop.Stop()
		close(stopped)
	}()

	// The cycle is still blocked inside Aggregate; Stop must wait for it.
	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight cycle finished")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Zero(t, store.savedCount())

	close(source.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}

	assert.Equal(t, StateIdle, loop.State())
	assert.Equal(t, 1, store.savedCount())
}

func TestScanLoop_RestartAfterStop(t *testing.T) {
	store := &stubStore{settings: market.DefaultScanSettings()}
	loop := newTestLoop(store, &stubSource{table: profitableTable()})

	loop.Start(context.Background())
	loop.Stop()

	loop.Start(context.Background())
	assert.Equal(t, StateRunning, loop.State())
	loop.Stop()
}
