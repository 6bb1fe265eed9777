package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
	"chronos_client/internal/partition"
)

// ClientConfig describes one simulated user session.
type ClientConfig struct {
	Number int // 1-based
	Total  int

	Address string
	Port    int

	ThinkTime       time.Duration
	MaxTransactions int // 0 = until ctx ends
	ItemsPerTxn     int // 0 = random within the generator bounds
	ForClientBurst  bool
}

// Client drives user transactions over its own partition of portfolios.
// A Client is not safe for concurrent use; run one goroutine per client.
type Client struct {
	cfg   ClientConfig
	cat   *catalog.Catalog
	cache *partition.Cache
	gen   *packet.Generator
	rng   domain.Rand
	mix   *Mix

	sess session
	sent int
}

// NewClient wires a client. rng should be the source the cache was built
// from, so a fixed seed replays the whole session.
func NewClient(cfg ClientConfig, deps Deps, cache *partition.Cache, gen *packet.Generator, rng domain.Rand, mix *Mix) *Client {
	if mix == nil {
		mix = DefaultMix()
	}
	return &Client{
		cfg:   cfg,
		cat:   deps.Catalog,
		cache: cache,
		gen:   gen,
		rng:   rng,
		mix:   mix,
		sess:  deps.session(fmt.Sprintf("client-%d", cfg.Number)),
	}
}

// Sent returns the number of transactions attempted, skipped ones included.
func (c *Client) Sent() int { return c.sent }

// Run connects and sends transactions until ctx ends, MaxTransactions is
// reached, or the transport fails for good.
func (c *Client) Run(ctx context.Context) (err error) {
	name := c.sess.name
	if err := c.sess.tr.Connect(ctx, c.cfg.Address, c.cfg.Port, name); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	defer c.sess.tr.Disconnect()

	slog.Info("Client started",
		slog.String("name", name),
		slog.Int("portfolios", c.cache.NumPortfolios()))

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.String("name", name), slog.Any("panic", r))
			err = fmt.Errorf("%s: panic: %v", name, r)
		}
	}()

	if c.cfg.ForClientBurst {
		for i := 0; i < c.cache.NumPortfolios(); i++ {
			done, err := c.send(ctx, func() (*packet.RequestPacket, error) {
				return c.gen.CreateForClient(i, c.cache)
			})
			if done || err != nil {
				return err
			}
		}
	}

	for c.cfg.MaxTransactions == 0 || c.sent < c.cfg.MaxTransactions {
		if ctx.Err() != nil {
			break
		}
		kind := c.mix.Pick(c.rng)
		done, err := c.send(ctx, func() (*packet.RequestPacket, error) {
			return c.gen.CreateRandom(c.cfg.ItemsPerTxn, kind, c.cache, c.cat)
		})
		if err != nil {
			return err
		}
		if done || sleep(ctx, c.cfg.ThinkTime) {
			break
		}
	}

	slog.Info("Client stopping...", slog.String("name", name), slog.Int("sent", c.sent))
	return nil
}

// send builds one packet and exchanges it. Pack and allocation failures
// are counted and skipped.
func (c *Client) send(ctx context.Context, build func() (*packet.RequestPacket, error)) (bool, error) {
	p, err := build()
	if err != nil {
		if errors.Is(err, domain.ErrPack) || errors.Is(err, domain.ErrAllocation) {
			slog.Warn("Packet skipped", slog.String("name", c.sess.name), slog.Any("error", err))
			c.sess.metrics.RecordError()
			c.sent++
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", c.sess.name, err)
	}
	c.sent++
	done, err := c.sess.exchange(ctx, p)
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.sess.name, err)
	}
	return done, nil
}
