package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstrument(t *testing.T) {
	inst, err := NewInstrument(" btc", "usdt ")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", inst.Symbol())

	_, err = NewInstrument("", "USDT")
	assert.Error(t, err)

	_, err = NewInstrument("ETH", "eth")
	assert.Error(t, err, "base equal to quote is rejected")
}

func TestParseInstrument(t *testing.T) {
	inst, err := ParseInstrument("ETH/USDC")
	require.NoError(t, err)
	assert.Equal(t, Instrument{Base: "ETH", Quote: "USDC"}, inst)

	_, err = ParseInstrument("ETHUSDC")
	assert.Error(t, err)
}

func TestQuoteValidate(t *testing.T) {
	inst := Instrument{Base: "ETH", Quote: "USDT"}

	tests := []struct {
		name    string
		bid     string
		ask     string
		wantErr bool
	}{
		{"both sides", "100", "101", false},
		{"bid only", "100", "0", false},
		{"ask only", "0", "101", false},
		{"neither side", "0", "0", true},
		{"crossed book", "102", "101", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Quote{
				Venue:      "binance",
				Instrument: inst,
				Bid:        decimal.RequireFromString(tt.bid),
				Ask:        decimal.RequireFromString(tt.ask),
				ObservedAt: time.Now(),
			}
			err := q.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScanSettingsFloors(t *testing.T) {
	s := ScanSettings{ScanInterval: 10 * time.Millisecond}
	assert.Equal(t, MinScanInterval, s.EffectiveInterval())

	s.ScanInterval = 5 * time.Second
	assert.Equal(t, 5*time.Second, s.EffectiveInterval())

	assert.True(t, s.EffectiveTradeAmount().Equal(decimal.NewFromInt(1)))

	s.TradeAmount = decimal.NewFromFloat(0.5)
	assert.True(t, s.EffectiveTradeAmount().Equal(decimal.NewFromFloat(0.5)))
}

func TestVenueConfigParam(t *testing.T) {
	cfg := VenueConfig{
		Name:   "kraken",
		Kind:   VenueKindExchange,
		Params: map[string]string{"base_url": "https://api.kraken.example"},
	}
	assert.Equal(t, "https://api.kraken.example", cfg.Param("base_url", "fallback"))
	assert.Equal(t, "fallback", cfg.Param("missing", "fallback"))
}
