// Package exchange implements the VenueClient port for centralized
// order-book exchanges polled over a Binance-compatible REST API.
package exchange

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crossarb/business/market/app"
	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/breaker"
	"crossarb/internal/httpclient"
)

const (
	tracerName = "exchange"

	defaultBaseURL = "https://api.binance.com"

	marketsEndpoint = "/api/v3/exchangeInfo"
	tickerEndpoint  = "/api/v3/ticker/24hr"
)

// Ensure Client implements the venue port.
var _ app.VenueClient = (*Client)(nil)

// Client quotes instruments from one order-book exchange. Markets are
// loaded once per process lifetime on the first quote.
type Client struct {
	name   string
	http   *httpclient.Client
	logger *slog.Logger
	cb     *breaker.Breaker[tickerResponse]
	tracer trace.Tracer

	initMu  sync.Mutex
	markets map[string]bool // populated on successful init only
}

// New creates an exchange client from its venue configuration. Supported
// params: "base_url" (API root) and "api_key_header" (header name for the
// key). Credentials are attached as headers and never logged.
func New(cfg domain.VenueConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Name == "" {
		return nil, apperror.New(apperror.CodeRequiredField,
			apperror.WithContext("exchange venue name"))
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers[cfg.Param("api_key_header", "X-MBX-APIKEY")] = cfg.APIKey
	}

	return &Client{
		name: cfg.Name,
		http: httpclient.New(
			cfg.Param("base_url", defaultBaseURL),
			httpclient.WithHeaders(headers),
		),
		logger: logger,
		cb:     breaker.New[tickerResponse](cfg.Name),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Name implements app.VenueClient.
func (c *Client) Name() string { return c.name }

// Quote implements app.VenueClient. An instrument the exchange does not
// list fails with CodeVenueInit; transient API failures fail with
// CodeVenueCall. Both are local to this venue.
func (c *Client) Quote(ctx context.Context, inst domain.Instrument) (domain.Quote, error) {
	ctx, span := c.tracer.Start(ctx, "exchange.quote",
		trace.WithAttributes(
			attribute.String("venue", c.name),
			attribute.String("instrument", inst.Symbol()),
		),
	)
	defer span.End()

	if err := c.ensureMarkets(ctx); err != nil {
		span.SetStatus(codes.Error, "market init failed")
		return domain.Quote{}, apperror.Wrap(err, apperror.CodeVenueInit, c.name)
	}

	symbol := marketSymbol(inst)
	if !c.markets[symbol] {
		span.SetStatus(codes.Error, "instrument unsupported")
		return domain.Quote{}, apperror.New(apperror.CodeVenueInit,
			apperror.WithContext(c.name+" does not list "+inst.Symbol()))
	}

	ticker, err := c.cb.Execute(func() (tickerResponse, error) {
		var t tickerResponse
		q := url.Values{"symbol": {symbol}}
		if err := c.http.GetJSON(ctx, tickerEndpoint, q, &t); err != nil {
			return tickerResponse{}, err
		}
		return t, nil
	})
	if err != nil {
		span.SetStatus(codes.Error, "ticker fetch failed")
		return domain.Quote{}, apperror.Wrap(err, apperror.CodeVenueCall, c.name)
	}

	quote, err := ticker.toQuote(c.name, inst)
	if err != nil {
		span.SetStatus(codes.Error, "ticker parse failed")
		return domain.Quote{}, err
	}

	span.SetStatus(codes.Ok, "quote received")
	return quote, nil
}

// ensureMarkets loads the listed symbols once. Failed loads are retried on
// the next quote; only success is cached.
func (c *Client) ensureMarkets(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.markets != nil {
		return nil
	}

	var info marketsResponse
	if err := c.http.GetJSON(ctx, marketsEndpoint, nil, &info); err != nil {
		return err
	}

	markets := make(map[string]bool, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "" || s.Status == "TRADING" {
			markets[s.Symbol] = true
		}
	}
	c.markets = markets

	c.logger.Info("exchange markets loaded",
		"venue", c.name, "symbols", len(markets))
	return nil
}

// marketSymbol converts BTC/USDT to the exchange's BTCUSDT form.
func marketSymbol(inst domain.Instrument) string {
	return strings.ToUpper(inst.Base + inst.Quote)
}
