package domain

import "log/slog"

// VenueKind discriminates the supported venue implementations.
type VenueKind string

const (
	// VenueKindExchange is a centralized order-book exchange polled over
	// its trading API.
	VenueKindExchange VenueKind = "order-book-exchange"

	// VenueKindAMMPool is an on-chain automated-market-maker pool read
	// through contract calls.
	VenueKindAMMPool VenueKind = "amm-pool"
)

// VenueConfig identifies one price source. Credentials and params are
// opaque strings supplied by configuration.
type VenueConfig struct {
	Name      string
	Kind      VenueKind
	APIKey    string
	APISecret string
	Params    map[string]string
	Active    bool
}

// Param returns a venue-specific parameter, or def when absent.
func (c VenueConfig) Param(key, def string) string {
	if v, ok := c.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// LogValue keeps credentials out of log output.
func (c VenueConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", c.Name),
		slog.String("kind", string(c.Kind)),
		slog.Bool("active", c.Active),
	)
}
