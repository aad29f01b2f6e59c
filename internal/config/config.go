// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	market "crossarb/business/market/domain"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Scan        ScanConfig      `mapstructure:"scan"`
	Venues      []VenueConfig   `mapstructure:"venues"`
	Instruments []string        `mapstructure:"instruments"`
	Store       StoreConfig     `mapstructure:"store"`
	Ethereum    EthereumConfig  `mapstructure:"ethereum"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ScanConfig holds the scanner's boot settings. Stored settings, when
// present, take precedence at runtime.
type ScanConfig struct {
	Interval          time.Duration `mapstructure:"interval"`
	MinProfitPct      float64       `mapstructure:"min_profit_pct"`
	SettlementCeiling float64       `mapstructure:"settlement_ceiling"`
	UseLeverage       bool          `mapstructure:"use_leverage"`
	TradeAmount       float64       `mapstructure:"trade_amount"`
	CallTimeout       time.Duration `mapstructure:"call_timeout"`
	RateLimit         int           `mapstructure:"rate_limit"`
	RateWindow        time.Duration `mapstructure:"rate_window"`
}

// VenueConfig mirrors one venue entry.
type VenueConfig struct {
	Name      string            `mapstructure:"name"`
	Kind      string            `mapstructure:"kind"`
	APIKey    string            `mapstructure:"api_key"`
	APISecret string            `mapstructure:"api_secret"`
	Params    map[string]string `mapstructure:"params"`
	Active    bool              `mapstructure:"active"`
}

// StoreConfig selects and tunes the storage backend.
type StoreConfig struct {
	Backend   string         `mapstructure:"backend"` // "postgres" | "memory"
	Retention int            `mapstructure:"retention"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds connection parameters for the postgres backend.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// EthereumConfig holds the on-chain executor settings. Execution stays
// disabled unless a contract address is configured.
type EthereumConfig struct {
	RPCURL            string            `mapstructure:"rpc_url"`
	PrivateKey        string            `mapstructure:"private_key"`
	ContractAddress   string            `mapstructure:"contract_address"`
	FlashLoanProvider string            `mapstructure:"flashloan_provider"`
	GasLimit          uint64            `mapstructure:"gas_limit"`
	VenueAddresses    map[string]string `mapstructure:"venue_addresses"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	PrometheusPort int `mapstructure:"prometheus_port"`
	HealthPort     int `mapstructure:"health_port"`
}

// ScanSettings converts the boot settings into the domain type.
func (c *ScanConfig) ScanSettings() market.ScanSettings {
	return market.ScanSettings{
		ScanInterval:       c.Interval,
		MinProfitThreshold: decimal.NewFromFloat(c.MinProfitPct),
		SettlementCeiling:  decimal.NewFromFloat(c.SettlementCeiling),
		UseLeverage:        c.UseLeverage,
		TradeAmount:        decimal.NewFromFloat(c.TradeAmount),
	}
}

// VenueConfigs converts the venue entries into the domain type.
func (c *Config) VenueConfigs() []market.VenueConfig {
	out := make([]market.VenueConfig, 0, len(c.Venues))
	for _, v := range c.Venues {
		out = append(out, market.VenueConfig{
			Name:      v.Name,
			Kind:      market.VenueKind(v.Kind),
			APIKey:    v.APIKey,
			APISecret: v.APISecret,
			Params:    v.Params,
			Active:    v.Active,
		})
	}
	return out
}

// InstrumentList parses the configured instrument symbols.
func (c *Config) InstrumentList() ([]market.Instrument, error) {
	out := make([]market.Instrument, 0, len(c.Instruments))
	for _, symbol := range c.Instruments {
		inst, err := market.ParseInstrument(symbol)
		if err != nil {
			return nil, fmt.Errorf("invalid instrument %q: %w", symbol, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CROSSARB")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Config file not found is OK, env vars and defaults apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "CROSSARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "CROSSARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "CROSSARB_LOG_LEVEL", "LOG_LEVEL")

	// Scan
	v.BindEnv("scan.interval", "CROSSARB_SCAN_INTERVAL")
	v.BindEnv("scan.min_profit_pct", "CROSSARB_MIN_PROFIT_PCT")
	v.BindEnv("scan.use_leverage", "CROSSARB_USE_LEVERAGE")
	v.BindEnv("scan.trade_amount", "CROSSARB_TRADE_AMOUNT")

	// Store
	v.BindEnv("store.backend", "CROSSARB_STORE_BACKEND")
	v.BindEnv("store.postgres.dsn", "CROSSARB_DATABASE_DSN", "DATABASE_URL")
	v.BindEnv("store.postgres.host", "CROSSARB_DATABASE_HOST")
	v.BindEnv("store.postgres.password", "CROSSARB_DATABASE_PASSWORD")

	// Ethereum
	v.BindEnv("ethereum.rpc_url", "CROSSARB_ETH_RPC_URL", "ETH_PROVIDER_URL")
	v.BindEnv("ethereum.private_key", "CROSSARB_WALLET_PRIVATE_KEY", "WALLET_PRIVATE_KEY")
	v.BindEnv("ethereum.contract_address", "CROSSARB_ARBITRAGE_CONTRACT", "ARBITRAGE_CONTRACT_ADDRESS")

	// Telemetry
	v.BindEnv("telemetry.prometheus_port", "CROSSARB_PROMETHEUS_PORT")
	v.BindEnv("telemetry.health_port", "CROSSARB_HEALTH_PORT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "crossarb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Scan defaults
	v.SetDefault("scan.interval", "3s")
	v.SetDefault("scan.min_profit_pct", 0.5)
	v.SetDefault("scan.settlement_ceiling", 0)
	v.SetDefault("scan.use_leverage", false)
	v.SetDefault("scan.trade_amount", 1.0)
	v.SetDefault("scan.call_timeout", "10s")
	v.SetDefault("scan.rate_limit", 5)
	v.SetDefault("scan.rate_window", "1s")

	// Instrument defaults
	v.SetDefault("instruments", []string{"ETH/USDT", "BTC/USDT"})

	// Store defaults
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.retention", 1000)
	v.SetDefault("store.postgres.port", 5432)
	v.SetDefault("store.postgres.ssl_mode", "disable")
	v.SetDefault("store.postgres.max_conns", 8)

	// Ethereum defaults
	v.SetDefault("ethereum.gas_limit", 600_000)

	// Telemetry defaults
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be positive")
	}
	if c.Scan.TradeAmount <= 0 {
		return fmt.Errorf("scan.trade_amount must be positive")
	}
	if c.Scan.RateLimit <= 0 {
		return fmt.Errorf("scan.rate_limit must be positive")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments cannot be empty")
	}
	if _, err := c.InstrumentList(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store.backend: %s", c.Store.Backend)
	}
	if c.Store.Backend == "postgres" &&
		c.Store.Postgres.DSN == "" && c.Store.Postgres.Host == "" {
		return fmt.Errorf("store.postgres.dsn or store.postgres.host is required")
	}

	for _, venue := range c.Venues {
		switch market.VenueKind(venue.Kind) {
		case market.VenueKindExchange, market.VenueKindAMMPool:
		default:
			return fmt.Errorf("venue %s: unknown kind %q", venue.Name, venue.Kind)
		}
	}

	if c.Ethereum.ContractAddress != "" {
		if c.Ethereum.RPCURL == "" {
			return fmt.Errorf("ethereum.rpc_url is required when a contract is configured")
		}
		if c.Ethereum.PrivateKey == "" {
			return fmt.Errorf("ethereum.private_key is required when a contract is configured")
		}
	}
	return nil
}
