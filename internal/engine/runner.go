package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
	"chronos_client/internal/infra"
	"chronos_client/internal/packet"
	"chronos_client/internal/partition"
)

// RunStore persists run summaries.
type RunStore interface {
	SaveRun(run *domain.RunRecord) error
}

// TransportFactory returns a fresh, unconnected transport per goroutine.
type TransportFactory func() Transport

// Runner executes one benchmark run: NumClients user sessions plus
// NumWorkers update workers against the same server.
type Runner struct {
	cfg          *infra.Config
	cat          *catalog.Catalog
	newTransport TransportFactory
	metrics      *infra.Metrics
	store        RunStore

	trace io.Writer
}

// NewRunner wires a runner. store may be nil.
func NewRunner(cfg *infra.Config, cat *catalog.Catalog, newTransport TransportFactory, m *infra.Metrics, store RunStore) *Runner {
	if m == nil {
		m = &infra.Metrics{}
	}
	return &Runner{
		cfg:          cfg,
		cat:          cat,
		newTransport: newTransport,
		metrics:      m,
		store:        store,
	}
}

// SetTrace dumps every request packet to w.
func (r *Runner) SetTrace(w io.Writer) { r.trace = w }

// GeneratorConfig maps the packets section of cfg.
func GeneratorConfig(cfg *infra.Config) packet.GeneratorConfig {
	p := cfg.Packets
	return packet.GeneratorConfig{
		MinItems:       p.MinItems,
		MaxItems:       p.MaxItems,
		PurchasePrice:  p.PurchasePrice,
		PurchaseAmount: p.PurchaseAmount,
		SalePrice:      p.SalePrice,
		SaleAmount:     p.SaleAmount,
		ClientPrice:    p.ClientPrice,
		ClientAmount:   p.ClientAmount,
		UpdatePrice:    p.UpdatePrice,
	}
}

// Run blocks until every client finishes or ctx ends, then stops the
// updaters, saves the run summary and returns it. The summary is returned
// even when a session failed.
func (r *Runner) Run(ctx context.Context) (*domain.RunRecord, error) {
	cfg := r.cfg

	if cfg.Catalog.ActiveCount > 0 {
		if err := r.cat.SetActiveRange(cfg.Catalog.ActiveFirst, cfg.Catalog.ActiveCount); err != nil {
			return nil, err
		}
	}

	mix, err := ParseMix(cfg.Client.Mix)
	if err != nil {
		return nil, err
	}
	policy, err := partition.ParsePolicy(cfg.Partition.Policy)
	if err != nil {
		return nil, err
	}
	genCfg := GeneratorConfig(cfg)

	pool := packet.NewPool(cfg.Packets.PoolLimit)
	pool.Warmup(cfg.Client.NumClients + cfg.Updater.NumWorkers)

	var traceMu sync.Mutex
	deps := func() Deps {
		return Deps{
			Catalog:   r.cat,
			Transport: r.newTransport(),
			Metrics:   r.metrics,
			Trace:     r.trace,
			TraceMu:   &traceMu,
		}
	}

	// Everything is built up front so configuration errors surface before
	// any connection is made.
	clients := make([]*Client, 0, cfg.Client.NumClients)
	for n := 1; n <= cfg.Client.NumClients; n++ {
		rng := rand.New(rand.NewSource(cfg.Client.Seed + int64(n)))
		cache, err := partition.Build(n, cfg.Client.NumClients, r.cat, rng,
			partition.WithPolicy(policy), partition.WithFixedHoldings(cfg.Partition.Holdings))
		if err != nil {
			return nil, fmt.Errorf("client %d: %w", n, err)
		}
		gen := packet.NewGenerator(rng, pool, genCfg)
		clients = append(clients, NewClient(ClientConfig{
			Number:          n,
			Total:           cfg.Client.NumClients,
			Address:         cfg.Server.Address,
			Port:            cfg.Server.Port,
			ThinkTime:       cfg.ThinkTime(),
			MaxTransactions: cfg.Client.MaxTransactions,
			ItemsPerTxn:     cfg.Client.ItemsPerTxn,
			ForClientBurst:  cfg.Client.ForClientBurst,
		}, deps(), cache, gen, rng, mix))
	}

	updaters := make([]*Updater, 0, cfg.Updater.NumWorkers)
	for k := 0; k < cfg.Updater.NumWorkers; k++ {
		rng := rand.New(rand.NewSource(cfg.Client.Seed - int64(k) - 1))
		u, err := NewUpdater(UpdaterConfig{
			Worker:   k,
			Workers:  cfg.Updater.NumWorkers,
			Address:  cfg.Server.Address,
			Port:     cfg.Server.Port,
			Interval: cfg.UpdateInterval(),
		}, deps(), packet.NewGenerator(rng, pool, genCfg))
		if err != nil {
			return nil, err
		}
		updaters = append(updaters, u)
	}

	if cfg.Client.DurationSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Client.DurationSec)*time.Second)
		defer cancel()
	}

	run := &domain.RunRecord{
		ID:            uuid.NewString(),
		ServerAddress: fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Transport:     cfg.Server.Transport,
		NumClients:    cfg.Client.NumClients,
		NumUpdaters:   cfg.Updater.NumWorkers,
		Seed:          cfg.Client.Seed,
		StartedAt:     time.Now(),
	}
	slog.Info("🏁 Run started",
		slog.String("run_id", run.ID),
		slog.String("server", run.ServerAddress),
		slog.Int("clients", run.NumClients),
		slog.Int("updaters", run.NumUpdaters))

	// A failed session of either group cancels the whole run.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	cg, cctx := errgroup.WithContext(runCtx)
	uctx, stopUpdaters := context.WithCancel(cctx)
	defer stopUpdaters()
	ug, uctx := errgroup.WithContext(uctx)

	for _, u := range updaters {
		u := u
		ug.Go(func() error {
			err := u.Run(uctx)
			if err != nil {
				cancelRun()
			}
			return err
		})
	}
	for _, c := range clients {
		c := c
		cg.Go(func() error { return c.Run(cctx) })
	}

	runErr := cg.Wait()
	stopUpdaters()
	runErr = errors.Join(runErr, ug.Wait())

	run.FinishedAt = time.Now()
	fillRun(run, r.metrics.Snapshot())

	slog.Info("🏁 Run finished",
		slog.String("run_id", run.ID),
		slog.Uint64("transactions", run.Transactions),
		slog.Uint64("errors", run.Errors),
		slog.Float64("tps", run.Throughput()),
		slog.Duration("avg_latency", time.Duration(run.AvgLatencyNs)))

	if r.store != nil {
		if err := r.store.SaveRun(run); err != nil {
			slog.Error("Failed to save run", slog.String("run_id", run.ID), slog.Any("error", err))
			runErr = errors.Join(runErr, err)
		}
	}
	return run, runErr
}

func fillRun(run *domain.RunRecord, snap infra.MetricsSnapshot) {
	run.Transactions = snap.Transactions
	run.Errors = snap.ErrorsTotal
	run.Timeouts = snap.Timeouts
	run.Retries = snap.Retries
	run.AvgLatencyNs = snap.AvgLatencyNs

	for k := packet.Kind(0); k.Valid(); k++ {
		ks := snap.Kind(k)
		if ks.Completed == 0 && ks.Rejected == 0 {
			continue
		}
		run.Kinds = append(run.Kinds, domain.KindStatRecord{
			RunID:        run.ID,
			Kind:         k.String(),
			Completed:    ks.Completed,
			Rejected:     ks.Rejected,
			AvgLatencyNs: ks.AvgLatencyNs,
		})
	}
}
