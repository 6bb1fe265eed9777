package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"chronos_client/internal/domain"
)

const (
	DefaultServerAddress    = "127.0.0.1"
	DefaultServerPort       = 5000
	DefaultTransport        = "tcp"
	DefaultWebSocketPath    = "/chronos"
	DefaultConnectAttempts  = 5
	DefaultReceiveTimeoutMS = 5000
	DefaultPollIntervalMS   = 100

	DefaultDataDir     = "data"
	DefaultSymbolsFile = "symbols.txt"

	DefaultNumSymbols = 300
	DefaultNumUsers   = 50

	DefaultNumClients  = 5
	DefaultSeed        = 1
	DefaultPoolLimit   = 0
	DefaultMinItems    = 1
	DefaultMaxItems    = 100
	DefaultUpdateEvery = 1000

	DefaultStoragePath = "data/chronos.db"
	DefaultLogDir      = "logs"
)

// Config holds every setting of a benchmark client run.
// LoadConfig reads it from YAML over DefaultConfig, then applies env overrides.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Address          string `yaml:"address"`
		Port             int    `yaml:"port"`
		Transport        string `yaml:"transport"` // tcp | websocket
		Path             string `yaml:"path"`      // websocket only
		ConnectAttempts  int    `yaml:"connect_attempts"`
		ReceiveTimeoutMS int    `yaml:"receive_timeout_ms"`
		PollIntervalMS   int    `yaml:"poll_interval_ms"`
	} `yaml:"server"`

	Data struct {
		HomeDir     string `yaml:"home_dir"`
		DataDir     string `yaml:"data_dir"`
		SymbolsFile string `yaml:"symbols_file"`
		Source      string `yaml:"source"` // file | sqlite
	} `yaml:"data"`

	Catalog struct {
		NumSymbols  int `yaml:"num_symbols"`
		NumUsers    int `yaml:"num_users"`
		ActiveFirst int `yaml:"active_first"`
		ActiveCount int `yaml:"active_count"` // 0 = whole catalog
	} `yaml:"catalog"`

	Partition struct {
		Policy   string `yaml:"policy"` // fixed | proportional
		Holdings int    `yaml:"holdings"`
	} `yaml:"partition"`

	Packets struct {
		MinItems       int             `yaml:"min_items"`
		MaxItems       int             `yaml:"max_items"`
		PoolLimit      int             `yaml:"pool_limit"`
		PurchasePrice  decimal.Decimal `yaml:"purchase_price"`
		PurchaseAmount int             `yaml:"purchase_amount"`
		SalePrice      decimal.Decimal `yaml:"sale_price"`
		SaleAmount     int             `yaml:"sale_amount"`
		ClientPrice    decimal.Decimal `yaml:"client_price"`
		ClientAmount   int             `yaml:"client_amount"`
		UpdatePrice    decimal.Decimal `yaml:"update_price"`
	} `yaml:"packets"`

	Client struct {
		NumClients      int            `yaml:"num_clients"`
		Seed            int64          `yaml:"seed"`
		ThinkTimeMS     int            `yaml:"think_time_ms"`
		MaxTransactions int            `yaml:"max_transactions"` // per client, 0 = until stopped
		ItemsPerTxn     int            `yaml:"items_per_txn"`    // 0 = random in [min_items, max_items]
		DurationSec     int            `yaml:"duration_sec"`     // 0 = until signal
		ForClientBurst  bool           `yaml:"for_client_burst"`
		Mix             map[string]int `yaml:"mix"`
	} `yaml:"client"`

	Updater struct {
		NumWorkers int `yaml:"num_workers"`
		IntervalMS int `yaml:"interval_ms"`
	} `yaml:"updater"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a config that runs against a local server on default ports.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "chronos-client"
	cfg.App.Version = "0.1.0"

	cfg.Server.Address = DefaultServerAddress
	cfg.Server.Port = DefaultServerPort
	cfg.Server.Transport = DefaultTransport
	cfg.Server.Path = DefaultWebSocketPath
	cfg.Server.ConnectAttempts = DefaultConnectAttempts
	cfg.Server.ReceiveTimeoutMS = DefaultReceiveTimeoutMS
	cfg.Server.PollIntervalMS = DefaultPollIntervalMS

	cfg.Data.HomeDir = "."
	cfg.Data.DataDir = DefaultDataDir
	cfg.Data.SymbolsFile = DefaultSymbolsFile
	cfg.Data.Source = "file"

	cfg.Catalog.NumSymbols = DefaultNumSymbols
	cfg.Catalog.NumUsers = DefaultNumUsers

	cfg.Partition.Policy = "fixed"
	cfg.Partition.Holdings = 100

	cfg.Packets.MinItems = DefaultMinItems
	cfg.Packets.MaxItems = DefaultMaxItems
	cfg.Packets.PoolLimit = DefaultPoolLimit
	cfg.Packets.PurchasePrice = decimal.NewFromInt(2000)
	cfg.Packets.PurchaseAmount = 10
	cfg.Packets.SalePrice = decimal.Zero
	cfg.Packets.SaleAmount = 5
	cfg.Packets.ClientPrice = decimal.NewFromInt(2000)
	cfg.Packets.ClientAmount = 100
	cfg.Packets.UpdatePrice = decimal.NewFromInt(1000)

	cfg.Client.NumClients = DefaultNumClients
	cfg.Client.Seed = DefaultSeed
	cfg.Client.Mix = DefaultMix()

	cfg.Updater.NumWorkers = 1
	cfg.Updater.IntervalMS = DefaultUpdateEvery

	cfg.Storage.Path = DefaultStoragePath

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = DefaultLogDir
	return &cfg
}

// DefaultMix returns the stock user transaction weights.
func DefaultMix() map[string]int {
	return map[string]int{
		"view_stock":     60,
		"view_portfolio": 20,
		"purchase":       10,
		"sale":           10,
	}
}

// LoadConfig reads path over DefaultConfig, applies env overrides and validates.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	// yaml.v3 merges into an existing map; a configured mix replaces the default one
	cfg.Client.Mix = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Client.Mix) == 0 {
		cfg.Client.Mix = DefaultMix()
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func invalid(field, format string, args ...any) error {
	return &domain.ConfigError{
		Field: field,
		Err:   fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidArgument}, args...)...),
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return invalid("server.address", "empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port", "%d", c.Server.Port)
	}
	if c.Server.Transport != "tcp" && c.Server.Transport != "websocket" {
		return invalid("server.transport", "%q", c.Server.Transport)
	}
	if c.Server.ConnectAttempts <= 0 {
		return invalid("server.connect_attempts", "must be positive")
	}
	if c.Server.ReceiveTimeoutMS <= 0 || c.Server.PollIntervalMS <= 0 {
		return invalid("server.receive_timeout_ms", "timeouts must be positive")
	}

	if c.Data.Source != "file" && c.Data.Source != "sqlite" {
		return invalid("data.source", "%q", c.Data.Source)
	}

	if c.Catalog.NumSymbols <= 0 {
		return invalid("catalog.num_symbols", "must be positive")
	}
	if c.Catalog.NumUsers <= 0 {
		return invalid("catalog.num_users", "must be positive")
	}
	if c.Catalog.ActiveCount == 0 && c.Catalog.ActiveFirst != 0 {
		return invalid("catalog.active_first", "%d set without active_count", c.Catalog.ActiveFirst)
	}
	if c.Catalog.ActiveCount < 0 || c.Catalog.ActiveFirst < 0 ||
		c.Catalog.ActiveFirst+c.Catalog.ActiveCount > c.Catalog.NumSymbols {
		return invalid("catalog.active_count", "range [%d, +%d) outside %d symbols",
			c.Catalog.ActiveFirst, c.Catalog.ActiveCount, c.Catalog.NumSymbols)
	}

	if c.Partition.Policy != "fixed" && c.Partition.Policy != "proportional" {
		return invalid("partition.policy", "%q", c.Partition.Policy)
	}

	if c.Packets.MinItems < 1 || c.Packets.MaxItems > DefaultMaxItems || c.Packets.MinItems > c.Packets.MaxItems {
		return invalid("packets.max_items", "item bounds [%d, %d] outside [1, %d]",
			c.Packets.MinItems, c.Packets.MaxItems, DefaultMaxItems)
	}
	if c.Packets.PoolLimit < 0 {
		return invalid("packets.pool_limit", "must not be negative")
	}

	if c.Client.ItemsPerTxn < 0 || c.Client.ItemsPerTxn > DefaultMaxItems {
		return invalid("client.items_per_txn", "%d outside [0, %d]", c.Client.ItemsPerTxn, DefaultMaxItems)
	}

	if c.Client.NumClients <= 0 {
		return invalid("client.num_clients", "must be positive")
	}
	total := 0
	for kind, w := range c.Client.Mix {
		if w < 0 {
			return invalid("client.mix", "negative weight for %s", kind)
		}
		total += w
	}
	if total == 0 {
		return invalid("client.mix", "all weights are zero")
	}

	if c.Updater.NumWorkers < 0 {
		return invalid("updater.num_workers", "must not be negative")
	}
	if c.Updater.NumWorkers > 0 && c.Updater.IntervalMS <= 0 {
		return invalid("updater.interval_ms", "must be positive")
	}

	return nil
}

// ReceiveTimeout bounds the wait for one response.
func (c *Config) ReceiveTimeout() time.Duration {
	return time.Duration(c.Server.ReceiveTimeoutMS) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Server.PollIntervalMS) * time.Millisecond
}

func (c *Config) ThinkTime() time.Duration {
	return time.Duration(c.Client.ThinkTimeMS) * time.Millisecond
}

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.Updater.IntervalMS) * time.Millisecond
}

// overrideWithEnv replaces server and data locations from the environment.
func overrideWithEnv(cfg *Config) error {
	if addr := os.Getenv("CHRONOS_SERVER_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if port := os.Getenv("CHRONOS_SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return &domain.ConfigError{Field: "CHRONOS_SERVER_PORT", Err: err}
		}
		cfg.Server.Port = p
	}
	if home := os.Getenv("CHRONOS_HOME_DIR"); home != "" {
		cfg.Data.HomeDir = home
	}
	if level := os.Getenv("CHRONOS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}
