package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/metrics"
	"crossarb/internal/ratelimit"
)

const tracerName = "market"

// DefaultCallTimeout bounds a single venue call so one slow venue cannot
// stall a whole cycle.
const DefaultCallTimeout = 10 * time.Second

// Aggregator polls every active venue for every active instrument and
// normalizes the results into one quote table per cycle.
type Aggregator struct {
	clients     *ClientRegistry
	limits      *ratelimit.Registry
	logger      *slog.Logger
	callTimeout time.Duration
	tracer      trace.Tracer
}

// NewAggregator creates an aggregator. A non-positive callTimeout falls
// back to DefaultCallTimeout.
func NewAggregator(clients *ClientRegistry, limits *ratelimit.Registry, callTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Aggregator{
		clients:     clients,
		limits:      limits,
		logger:      logger,
		callTimeout: callTimeout,
		tracer:      otel.Tracer(tracerName),
	}
}

// pollResult is one venue/instrument cell, written by exactly one goroutine.
type pollResult struct {
	key   domain.QuoteKey
	quote domain.Quote
	err   error
}

// Aggregate fetches quotes for each active venue/instrument pair. A failed
// pair is logged and absent from the result; it never aborts the rest of
// the table. With zero active venues the table is empty immediately; the
// detector, not the aggregator, enforces the two-venue minimum per
// instrument.
func (a *Aggregator) Aggregate(ctx context.Context, venues []domain.VenueConfig, instruments []domain.Instrument) domain.QuoteTable {
	ctx, span := a.tracer.Start(ctx, "market.aggregate",
		trace.WithAttributes(
			attribute.Int("venues", len(venues)),
			attribute.Int("instruments", len(instruments)),
		),
	)
	defer span.End()

	active := make([]domain.VenueConfig, 0, len(venues))
	for _, v := range venues {
		if v.Active {
			active = append(active, v)
		}
	}

	table := make(domain.QuoteTable)
	if len(active) == 0 || len(instruments) == 0 {
		return table
	}

	// Each poll writes its own result slot; the table is assembled only
	// after every goroutine has finished.
	results := make([]pollResult, len(active)*len(instruments))
	g, gctx := errgroup.WithContext(ctx)

	slot := 0
	for _, venue := range active {
		client, err := a.clients.ClientFor(venue)
		if err != nil {
			a.logger.Warn("venue client unavailable",
				"venue", venue.Name, "error", err)
			slot += len(instruments)
			continue
		}

		limiter := a.limits.For(venue.Name)
		for _, inst := range instruments {
			i := slot
			slot++
			venueName := venue.Name
			instrument := inst
			g.Go(func() error {
				results[i] = a.poll(gctx, client, limiter, venueName, instrument)
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, res := range results {
		if res.key.Venue == "" {
			continue
		}
		if res.err != nil {
			metrics.VenueErrors.WithLabelValues(res.key.Venue, string(apperror.GetCode(res.err))).Inc()
			a.logger.Warn("venue poll failed",
				"venue", res.key.Venue,
				"instrument", res.key.Instrument.Symbol(),
				"error", res.err)
			continue
		}
		table[res.key] = res.quote
	}

	span.SetAttributes(attribute.Int("quotes", len(table)))
	return table
}

func (a *Aggregator) poll(ctx context.Context, client VenueClient, limiter *ratelimit.SlidingWindow, venue string, inst domain.Instrument) pollResult {
	key := domain.QuoteKey{Venue: venue, Instrument: inst}

	if err := limiter.Acquire(ctx); err != nil {
		return pollResult{key: key, err: err}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	quote, err := client.Quote(callCtx, inst)
	if err != nil {
		return pollResult{key: key, err: err}
	}
	if err := quote.Validate(); err != nil {
		return pollResult{key: key, err: err}
	}

	metrics.QuotesFetched.WithLabelValues(venue).Inc()
	return pollResult{key: key, quote: quote}
}
