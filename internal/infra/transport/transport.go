// Package transport moves fixed-size request and response frames between a
// benchmark client and the server under test.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chronos_client/internal/domain"
	"chronos_client/internal/infra"
	"chronos_client/internal/packet"
)

const (
	defaultConnectAttempts = 5
	defaultReceiveTimeout  = 5 * time.Second
	defaultPollInterval    = 100 * time.Millisecond

	// frames buffered between the reader goroutine and Receive
	inboxSize = 16
)

// Options configures connect retries and receive polling.
type Options struct {
	ConnectAttempts int
	ReceiveTimeout  time.Duration
	PollInterval    time.Duration

	// optional
	Metrics *infra.Metrics
}

// OptionsFromConfig maps the server section of the run config.
func OptionsFromConfig(cfg *infra.Config, m *infra.Metrics) Options {
	return Options{
		ConnectAttempts: cfg.Server.ConnectAttempts,
		ReceiveTimeout:  cfg.ReceiveTimeout(),
		PollInterval:    cfg.PollInterval(),
		Metrics:         m,
	}
}

func (o Options) withDefaults() Options {
	if o.ConnectAttempts <= 0 {
		o.ConnectAttempts = defaultConnectAttempts
	}
	if o.ReceiveTimeout <= 0 {
		o.ReceiveTimeout = defaultReceiveTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	return o
}

// dialWithRetry calls dial until it succeeds, ctx ends, or attempts run out,
// sleeping infra.CalculateBackoff between attempts.
func dialWithRetry(ctx context.Context, o Options, target string, dial func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < o.ConnectAttempts; attempt++ {
		if attempt > 0 {
			if o.Metrics != nil {
				o.Metrics.RecordRetry()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(infra.CalculateBackoff(attempt - 1)):
			}
		}

		if lastErr = dial(ctx); lastErr == nil {
			return nil
		}
		slog.Warn("Connect failed",
			slog.String("target", target),
			slog.Int("attempt", attempt+1),
			slog.Any("error", lastErr))
	}
	return domain.NewNetworkError("connect",
		fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrConnectionFailed, target, o.ConnectAttempts, lastErr))
}

// inbox hands frames from a connection's reader goroutine to Receive.
type inbox struct {
	frames chan []byte
	errs   chan error
	done   chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		frames: make(chan []byte, inboxSize),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// push delivers a frame unless the connection is being torn down.
func (in *inbox) push(frame []byte) bool {
	select {
	case in.frames <- frame:
		return true
	case <-in.done:
		return false
	}
}

func (in *inbox) close() {
	close(in.done)
}

func (in *inbox) fail(err error) {
	select {
	case in.errs <- err:
	default:
	}
}

// wait blocks for the next response frame. isTimeToDie is polled every
// PollInterval; a true result abandons the wait with domain.ErrStopped.
func (in *inbox) wait(ctx context.Context, o Options, isTimeToDie func() bool) (*packet.ResponsePacket, error) {
	timeout := time.NewTimer(o.ReceiveTimeout)
	defer timeout.Stop()
	poll := time.NewTicker(o.PollInterval)
	defer poll.Stop()

	for {
		select {
		case frame := <-in.frames:
			decoded, ok := packet.DecodeResponse(frame)
			if !ok {
				return nil, domain.NewFatalNetworkError("receive",
					fmt.Errorf("short response frame: %d bytes", len(frame)))
			}
			resp := packet.AllocResponse()
			resp.Set(decoded.Kind(), decoded.Outcome())
			return resp, nil

		case err := <-in.errs:
			return nil, domain.NewFatalNetworkError("receive", err)

		case <-poll.C:
			if isTimeToDie != nil && isTimeToDie() {
				return nil, domain.ErrStopped
			}

		case <-timeout.C:
			if o.Metrics != nil {
				o.Metrics.RecordTimeout()
			}
			return nil, domain.NewNetworkError("receive",
				fmt.Errorf("%w after %s", domain.ErrTimeout, o.ReceiveTimeout))

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
