package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

// UpdaterConfig describes one system price-update worker.
type UpdaterConfig struct {
	Worker  int // 0-based shard index
	Workers int

	Address string
	Port    int

	Interval time.Duration
	// MaxRounds stops the worker after that many passes; 0 = until ctx ends.
	MaxRounds int
}

// Updater periodically sends UpdateStock packets for its shard of the
// active symbol range.
type Updater struct {
	cfg     UpdaterConfig
	deps    Deps
	gen     *packet.Generator
	indices []int

	sess   session
	rounds int
	sent   int
}

// NewUpdater resolves the worker's shard. The active range must be final
// before this is called.
func NewUpdater(cfg UpdaterConfig, deps Deps, gen *packet.Generator) (*Updater, error) {
	indices, err := deps.Catalog.Shard(cfg.Worker, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("updater %d/%d: %w", cfg.Worker, cfg.Workers, err)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: updater interval %s", domain.ErrInvalidArgument, cfg.Interval)
	}
	return &Updater{
		cfg:     cfg,
		deps:    deps,
		gen:     gen,
		indices: indices,
		sess:    deps.session(fmt.Sprintf("updater-%d", cfg.Worker)),
	}, nil
}

// Indices returns the catalog indices this worker updates.
func (u *Updater) Indices() []int { return u.indices }

// Sent returns the number of update packets attempted.
func (u *Updater) Sent() int { return u.sent }

// Run connects, then sends one pass over the shard every Interval.
func (u *Updater) Run(ctx context.Context) (err error) {
	name := u.sess.name
	if err := u.sess.tr.Connect(ctx, u.cfg.Address, u.cfg.Port, name); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	defer u.sess.tr.Disconnect()

	slog.Info("Updater started", slog.String("name", name), slog.Int("symbols", len(u.indices)))

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.String("name", name), slog.Any("panic", r))
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
	}()

	ticker := time.NewTicker(u.cfg.Interval)
	defer ticker.Stop()

	for u.cfg.MaxRounds == 0 || u.rounds < u.cfg.MaxRounds {
		done, err := u.pass(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		u.rounds++
		if done {
			break
		}

		select {
		case <-ctx.Done():
			slog.Info("Updater stopping...", slog.String("name", name), slog.Int("sent", u.sent))
			return nil
		case <-ticker.C:
		}
	}

	slog.Info("Updater stopping...", slog.String("name", name), slog.Int("sent", u.sent))
	return nil
}

// pass sends the shard in packets of at most packet.MaxItems symbols.
func (u *Updater) pass(ctx context.Context) (bool, error) {
	for lo := 0; lo < len(u.indices); lo += packet.MaxItems {
		hi := min(lo+packet.MaxItems, len(u.indices))

		p, err := u.gen.CreateSystemUpdateFromList(u.indices[lo:hi], u.deps.Catalog)
		u.sent++
		if err != nil {
			if errors.Is(err, domain.ErrPack) || errors.Is(err, domain.ErrAllocation) {
				slog.Warn("Update skipped", slog.String("name", u.sess.name), slog.Any("error", err))
				u.sess.metrics.RecordError()
				continue
			}
			return false, err
		}

		done, err := u.sess.exchange(ctx, p)
		if done || err != nil {
			return done, err
		}
	}
	return false, nil
}
