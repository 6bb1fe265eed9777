package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chronos_client/internal/domain"
	"chronos_client/internal/packet"
)

const handshakeTimeout = 10 * time.Second

// WebSocket carries one fixed frame per binary message.
type WebSocket struct {
	opts Options
	path string
	name string

	mu      sync.RWMutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	inbox   *inbox
	wg      sync.WaitGroup

	buf []byte
}

// NewWebSocket creates a transport that dials ws://address:port/path.
func NewWebSocket(opts Options, path string) *WebSocket {
	if path == "" {
		path = "/"
	}
	return &WebSocket{
		opts: opts.withDefaults(),
		path: path,
		buf:  make([]byte, packet.RequestWireSize),
	}
}

func (w *WebSocket) Connect(ctx context.Context, address string, port int, name string) error {
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(address, strconv.Itoa(port)),
		Path:   w.path,
	}
	target := u.String()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	err := dialWithRetry(ctx, w.opts, target, func(ctx context.Context) error {
		conn, _, err := dialer.DialContext(ctx, target, nil)
		if err != nil {
			return fmt.Errorf("dial failed: %w", err)
		}

		in := newInbox()
		w.mu.Lock()
		w.conn = conn
		w.inbox = in
		w.name = name
		w.mu.Unlock()

		w.wg.Add(1)
		go w.readLoop(conn, in)
		return nil
	})
	if err != nil {
		return err
	}

	if w.opts.Metrics != nil {
		w.opts.Metrics.IncrementConnections()
	}
	slog.Debug("WebSocket connected", slog.String("name", name), slog.String("target", target))
	return nil
}

// readLoop runs without read deadlines: a timed-out gorilla read leaves the
// connection unusable, so Receive polls the inbox instead.
func (w *WebSocket) readLoop(conn *websocket.Conn, in *inbox) {
	defer w.wg.Done()
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-in.done:
			default:
				in.fail(err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if !in.push(msg) {
			return
		}
	}
}

func (w *WebSocket) Send(ctx context.Context, req *packet.RequestPacket) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return domain.NewFatalNetworkError("send", domain.ErrNotConnected)
	}

	if deadline, ok := ctx.Deadline(); ok {
		w.conn.SetWriteDeadline(deadline)
	} else {
		w.conn.SetWriteDeadline(time.Time{})
	}

	w.buf = packet.EncodeRequest(w.buf, req)
	if err := w.conn.WriteMessage(websocket.BinaryMessage, w.buf); err != nil {
		return domain.NewFatalNetworkError("send", err)
	}
	return nil
}

func (w *WebSocket) Receive(ctx context.Context, isTimeToDie func() bool) (*packet.ResponsePacket, error) {
	w.mu.RLock()
	in := w.inbox
	w.mu.RUnlock()
	if in == nil {
		return nil, domain.NewFatalNetworkError("receive", domain.ErrNotConnected)
	}
	return in.wait(ctx, w.opts, isTimeToDie)
}

// Disconnect sends a close frame, closes the socket and waits for the reader.
func (w *WebSocket) Disconnect() error {
	w.writeMu.Lock()
	w.mu.Lock()
	conn, in := w.conn, w.inbox
	w.conn = nil
	w.inbox = nil
	w.mu.Unlock()
	w.writeMu.Unlock()

	if conn == nil {
		return nil
	}
	in.close()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := conn.Close()
	w.wg.Wait()

	if w.opts.Metrics != nil {
		w.opts.Metrics.DecrementConnections()
	}
	slog.Debug("WebSocket disconnected", slog.String("name", w.name))
	return err
}
