package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

// TCP sends each request as one RequestWireSize frame on a raw stream socket
// and reads ResponseWireSize frames back.
type TCP struct {
	opts Options
	name string

	mu    sync.RWMutex
	conn  net.Conn
	inbox *inbox
	wg    sync.WaitGroup

	buf []byte
}

func NewTCP(opts Options) *TCP {
	return &TCP{
		opts: opts.withDefaults(),
		buf:  make([]byte, packet.RequestWireSize),
	}
}

// Connect dials address:port, retrying with backoff.
func (t *TCP) Connect(ctx context.Context, address string, port int, name string) error {
	target := net.JoinHostPort(address, strconv.Itoa(port))

	var dialer net.Dialer
	err := dialWithRetry(ctx, t.opts, target, func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			return err
		}

		in := newInbox()
		t.mu.Lock()
		t.conn = conn
		t.inbox = in
		t.name = name
		t.mu.Unlock()

		t.wg.Add(1)
		go t.readLoop(conn, in)
		return nil
	})
	if err != nil {
		return err
	}

	if t.opts.Metrics != nil {
		t.opts.Metrics.IncrementConnections()
	}
	slog.Debug("TCP connected", slog.String("name", name), slog.String("target", target))
	return nil
}

func (t *TCP) readLoop(conn net.Conn, in *inbox) {
	defer t.wg.Done()
	for {
		frame := make([]byte, packet.ResponseWireSize)
		if _, err := io.ReadFull(conn, frame); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				in.fail(err)
			}
			return
		}
		if !in.push(frame) {
			return
		}
	}
}

// Send writes the full fixed frame regardless of the packet item count.
func (t *TCP) Send(ctx context.Context, req *packet.RequestPacket) error {
	t.mu.RLock()
	conn := t.conn
	t.mu.RUnlock()
	if conn == nil {
		return domain.NewFatalNetworkError("send", domain.ErrNotConnected)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Time{})
	}

	t.buf = packet.EncodeRequest(t.buf, req)
	if _, err := conn.Write(t.buf); err != nil {
		return domain.NewFatalNetworkError("send", err)
	}
	return nil
}

// Receive waits for the next response. The caller frees it with packet.FreeResponse.
func (t *TCP) Receive(ctx context.Context, isTimeToDie func() bool) (*packet.ResponsePacket, error) {
	t.mu.RLock()
	in := t.inbox
	t.mu.RUnlock()
	if in == nil {
		return nil, domain.NewFatalNetworkError("receive", domain.ErrNotConnected)
	}
	return in.wait(ctx, t.opts, isTimeToDie)
}

// Disconnect closes the socket and waits for the reader to exit.
func (t *TCP) Disconnect() error {
	t.mu.Lock()
	conn, in := t.conn, t.inbox
	t.conn = nil
	t.inbox = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	in.close()
	err := conn.Close()
	t.wg.Wait()

	if t.opts.Metrics != nil {
		t.opts.Metrics.DecrementConnections()
	}
	slog.Debug("TCP disconnected", slog.String("name", t.name))
	return err
}
