package app

import (
	"errors"
	"fmt"
	"log/slog"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
	"chronos_client/internal/engine"
	"chronos_client/internal/infra"
	"chronos_client/internal/infra/storage"
	"chronos_client/internal/infra/transport"
)

// Bootstrap orchestrates the client startup sequence
type Bootstrap struct {
	ConfigPath string

	Config  *infra.Config
	Storage *storage.Storage
	Catalog *catalog.Catalog
	Metrics *infra.Metrics
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap(configPath string) *Bootstrap {
	return &Bootstrap{ConfigPath: configPath, Metrics: &infra.Metrics{}}
}

// Initialize loads config, installs the logger, opens storage and loads
// the catalog, in that order.
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Chronos client...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(b.ConfigPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.Path))

	// 4. Load Catalog
	if err := b.LoadCatalog(); err != nil {
		return err
	}
	slog.Info("✅ Catalog ready",
		slog.String("source", cfg.Data.Source),
		slog.Int("symbols", b.Catalog.NumSymbols()))

	return nil
}

// LoadCatalog builds the catalog from the configured source. The sqlite
// source is seeded from the symbols file on first use.
func (b *Bootstrap) LoadCatalog() error {
	cfg := b.Config
	var loader domain.SymbolLoader = infra.NewFileLoader(cfg.Data.SymbolsFile)

	if cfg.Data.Source == "sqlite" {
		if err := b.SyncSymbols(); err != nil {
			return err
		}
		loader = b.Storage
	}

	cat, err := catalog.Load(loader, cfg.Data.HomeDir, cfg.Data.DataDir, catalog.Config{
		NumSymbols: cfg.Catalog.NumSymbols,
		NumUsers:   cfg.Catalog.NumUsers,
	})
	if err != nil {
		return err
	}
	b.Catalog = cat
	return nil
}

// SyncSymbols copies the symbols file into storage when storage is empty.
func (b *Bootstrap) SyncSymbols() error {
	n, err := b.Storage.CountSymbols()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	slog.Info("🔄 Seeding symbol table from file...")
	cfg := b.Config
	symbols, err := infra.NewFileLoader(cfg.Data.SymbolsFile).
		LoadSymbols(cfg.Data.HomeDir, cfg.Data.DataDir, cfg.Catalog.NumSymbols)
	if err != nil {
		return err
	}
	if err := b.Storage.SaveSymbols(symbols); err != nil {
		return err
	}
	slog.Info("✨ Symbol table seeded", slog.Int("symbols", len(symbols)))
	return nil
}

// TransportFactory returns a factory for the configured transport.
func (b *Bootstrap) TransportFactory() (engine.TransportFactory, error) {
	opts := transport.OptionsFromConfig(b.Config, b.Metrics)
	switch b.Config.Server.Transport {
	case "tcp":
		return func() engine.Transport { return transport.NewTCP(opts) }, nil
	case "websocket":
		path := b.Config.Server.Path
		return func() engine.Transport { return transport.NewWebSocket(opts, path) }, nil
	default:
		return nil, fmt.Errorf("%w: transport %q", domain.ErrInvalidArgument, b.Config.Server.Transport)
	}
}

// NewRunner wires a run over the bootstrapped catalog, transport and storage.
func (b *Bootstrap) NewRunner() (*engine.Runner, error) {
	if b.Catalog == nil {
		return nil, errors.New("bootstrap not initialized")
	}
	factory, err := b.TransportFactory()
	if err != nil {
		return nil, err
	}
	return engine.NewRunner(b.Config, b.Catalog, factory, b.Metrics, b.Storage), nil
}

// Close releases storage.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	return b.Storage.Close()
}
