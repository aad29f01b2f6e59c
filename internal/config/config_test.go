package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	market "crossarb/business/market/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: crossarb\n"))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Scan.Interval)
	assert.Equal(t, 0.5, cfg.Scan.MinProfitPct)
	assert.Equal(t, 5, cfg.Scan.RateLimit)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 9090, cfg.Telemetry.PrometheusPort)

	insts, err := cfg.InstrumentList()
	require.NoError(t, err)
	assert.Contains(t, insts, market.Instrument{Base: "ETH", Quote: "USDT"})
}

func TestLoad_VenuesAndSettings(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
scan:
  interval: 5s
  min_profit_pct: 1.25
  use_leverage: true
venues:
  - name: binance
    kind: order-book-exchange
    api_key: key
    active: true
  - name: uniswap
    kind: amm-pool
    params:
      rpc_url: http://localhost:8545
    active: true
instruments:
  - "BTC/USDT"
`))
	require.NoError(t, err)

	settings := cfg.Scan.ScanSettings()
	assert.Equal(t, 5*time.Second, settings.ScanInterval)
	assert.Equal(t, "1.25", settings.MinProfitThreshold.String())
	assert.True(t, settings.UseLeverage)

	venues := cfg.VenueConfigs()
	require.Len(t, venues, 2)
	assert.Equal(t, market.VenueKindExchange, venues[0].Kind)
	assert.Equal(t, market.VenueKindAMMPool, venues[1].Kind)
	assert.Equal(t, "http://localhost:8545", venues[1].Params["rpc_url"])
}

func TestLoad_RejectsUnknownVenueKind(t *testing.T) {
	_, err := Load(writeConfig(t, `
venues:
  - name: mystery
    kind: dark-pool
`))
	assert.ErrorContains(t, err, "unknown kind")
}

func TestLoad_RejectsBadInstrument(t *testing.T) {
	_, err := Load(writeConfig(t, "instruments:\n  - \"BTCUSDT\"\n"))
	assert.ErrorContains(t, err, "invalid instrument")
}

func TestLoad_PostgresBackendNeedsTarget(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "store.postgres")
}

func TestLoad_EthereumRequiresKeyWithContract(t *testing.T) {
	_, err := Load(writeConfig(t, `
ethereum:
  contract_address: "0x0000000000000000000000000000000000000001"
  rpc_url: http://localhost:8545
`))
	assert.ErrorContains(t, err, "private_key")
}
