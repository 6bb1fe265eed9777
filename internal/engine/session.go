package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
	"chronos_client/internal/infra"
	"chronos_client/internal/packet"
)

// Transport is the connection a client or updater drives.
// Implementations live in internal/infra/transport.
type Transport interface {
	Connect(ctx context.Context, address string, port int, name string) error
	Send(ctx context.Context, req *packet.RequestPacket) error
	Receive(ctx context.Context, isTimeToDie func() bool) (*packet.ResponsePacket, error)
	Disconnect() error
}

// Deps are the collaborators of one client or updater.
type Deps struct {
	Catalog   *catalog.Catalog
	Transport Transport
	Metrics   *infra.Metrics

	// optional packet trace; TraceMu guards it when several sessions share it
	Trace   io.Writer
	TraceMu *sync.Mutex
}

func (d Deps) session(name string) session {
	s := session{
		name:    name,
		tr:      d.Transport,
		metrics: d.Metrics,
		dump:    d.Trace,
		dumpMu:  d.TraceMu,
	}
	if s.metrics == nil {
		s.metrics = &infra.Metrics{}
	}
	if s.dump != nil && s.dumpMu == nil {
		s.dumpMu = &sync.Mutex{}
	}
	return s
}

// session performs request/response exchanges for one goroutine.
type session struct {
	name    string
	tr      Transport
	metrics *infra.Metrics

	// optional packet trace, shared between goroutines
	dump   io.Writer
	dumpMu *sync.Mutex
}

// exchange sends p, waits for its response and frees p.
// Retriable failures are counted and swallowed; a nil error with done=true
// means the context ended mid-exchange.
func (s *session) exchange(ctx context.Context, p *packet.RequestPacket) (done bool, err error) {
	defer p.Free()

	if s.dump != nil {
		s.dumpMu.Lock()
		packet.Dump(s.dump, p)
		s.dumpMu.Unlock()
	}

	start := time.Now()
	if err := s.tr.Send(ctx, p); err != nil {
		s.metrics.RecordError()
		if domain.IsRetriable(err) {
			return false, nil
		}
		return false, err
	}

	resp, err := s.tr.Receive(ctx, func() bool { return ctx.Err() != nil })
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrStopped), ctx.Err() != nil:
			return true, nil
		case domain.IsRetriable(err):
			slog.Warn("Response lost",
				slog.String("session", s.name),
				slog.String("kind", p.Kind().String()),
				slog.Any("error", err))
			s.metrics.RecordError()
			return false, nil
		default:
			s.metrics.RecordError()
			return false, err
		}
	}

	s.metrics.RecordTransaction(resp.Kind(), resp.Outcome(), time.Since(start))
	packet.FreeResponse(resp)
	return false, nil
}

// sleep waits d or until ctx ends. It reports whether ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-t.C:
		return false
	}
}
