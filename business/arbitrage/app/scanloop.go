package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crossarb/internal/apperror"
	"crossarb/internal/metrics"
)

// State is the scan loop lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// DefaultCycleBackoff is the pause after a failed cycle before the next
// attempt.
const DefaultCycleBackoff = 3 * time.Second

// ScanLoop periodically aggregates quotes, detects gaps, prices them, and
// persists the ones that clear the profit threshold. One loop instance owns
// its lifecycle; there are no package-level singletons.
type ScanLoop struct {
	store    Store
	quotes   QuoteSource
	detector *Detector
	profit   *ProfitModel
	logger   *slog.Logger
	backoff  time.Duration

	mu     sync.Mutex
	state  State
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewScanLoop creates an idle loop.
func NewScanLoop(store Store, quotes QuoteSource, detector *Detector, profit *ProfitModel, logger *slog.Logger) *ScanLoop {
	return &ScanLoop{
		store:    store,
		quotes:   quotes,
		detector: detector,
		profit:   profit,
		logger:   logger,
		backoff:  DefaultCycleBackoff,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (l *ScanLoop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start launches the background loop. Calling Start on a loop that is
// already running is a no-op.
func (l *ScanLoop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return
	}
	l.state = StateRunning
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})

	l.logger.Info("scan loop started")
	go l.run(ctx, l.stopCh, l.doneCh)
}

// Stop requests graceful termination and blocks until the loop is idle. An
// in-flight cycle always finishes its storage writes first; Stop only
// prevents the next cycle from starting. Stopping an idle loop is a no-op.
func (l *ScanLoop) Stop() {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return
	}
	l.state = StateStopping
	close(l.stopCh)
	done := l.doneCh
	l.mu.Unlock()

	<-done
}

func (l *ScanLoop) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		l.mu.Lock()
		l.state = StateIdle
		l.mu.Unlock()
		close(doneCh)
		l.logger.Info("scan loop stopped")
	}()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		started := time.Now()
		interval, err := l.cycle(ctx)
		metrics.CycleDuration.Observe(time.Since(started).Seconds())

		pause := interval
		if err != nil {
			metrics.ScanCycles.WithLabelValues("error").Inc()
			l.logger.Error("scan cycle failed", "error", err, "backoff", l.backoff)
			pause = l.backoff
		} else {
			metrics.ScanCycles.WithLabelValues("ok").Inc()
		}

		timer := time.NewTimer(pause)
		select {
		case <-stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// cycle runs one full aggregation pass and returns the interval to sleep
// before the next one. Panics are contained here so a single bad cycle can
// never take the loop down.
func (l *ScanLoop) cycle(ctx context.Context) (interval time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			interval = 0
			err = apperror.New(apperror.CodeCycleFailed,
				apperror.WithContext(fmt.Sprint(r)))
		}
	}()

	settings, err := l.store.Settings(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeCycleFailed, "read settings")
	}
	venues, err := l.store.ActiveVenues(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeCycleFailed, "read venues")
	}
	instruments, err := l.store.ActiveInstruments(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeCycleFailed, "read instruments")
	}

	table := l.quotes.Aggregate(ctx, venues, instruments)
	raws := l.detector.Detect(table)

	saved := 0
	for _, raw := range raws {
		opp, err := l.profit.Apply(raw, settings.EffectiveTradeAmount(), settings.UseLeverage)
		if err != nil {
			l.logger.Warn("opportunity dropped",
				"instrument", raw.Instrument.Symbol(), "error", err)
			continue
		}
		if settings.SettlementCeiling.IsPositive() &&
			opp.SettlementCostEstimate.GreaterThan(settings.SettlementCeiling) {
			l.logger.Debug("opportunity dropped above settlement ceiling",
				"instrument", raw.Instrument.Symbol(),
				"settlement_cost", opp.SettlementCostEstimate)
			continue
		}
		if opp.NetProfitPct.LessThan(settings.MinProfitThreshold) {
			continue
		}

		if err := l.store.SaveOpportunity(ctx, opp); err != nil {
			return 0, apperror.Wrap(err, apperror.CodeCycleFailed, "save opportunity")
		}
		metrics.OpportunitiesFound.WithLabelValues(opp.Instrument.Symbol()).Inc()
		saved++

		l.logger.Info("opportunity saved",
			"instrument", opp.Instrument.Symbol(),
			"buy_venue", opp.BuyVenue,
			"sell_venue", opp.SellVenue,
			"net_profit_pct", opp.NetProfitPct)
	}

	l.logger.Debug("scan cycle complete",
		"quotes", len(table), "gaps", len(raws), "saved", saved)
	return settings.EffectiveInterval(), nil
}
