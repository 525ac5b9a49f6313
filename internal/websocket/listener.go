// internal/websocket/listener.go
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	wstypes "bistro-bff/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512KB
)

// TokenSource supplies the access token presented on connect.
type TokenSource interface {
	Access() string
}

type Config struct {
	// URL of the upstream socket, ws:// or wss://.
	URL    string
	Dialer *websocket.Dialer
	Logger *zap.Logger
}

// Listener holds one authenticated subscription to the upstream socket and
// routes incoming events through a HandlerRegistry.
type Listener struct {
	url      string
	dialer   *websocket.Dialer
	tokens   TokenSource
	registry *HandlerRegistry
	logger   *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
	done   chan struct{}
}

func NewListener(cfg Config, tokens TokenSource, registry *HandlerRegistry) *Listener {
	l := &Listener{
		url:      cfg.URL,
		dialer:   cfg.Dialer,
		tokens:   tokens,
		registry: registry,
		logger:   cfg.Logger,
	}
	if l.dialer == nil {
		l.dialer = websocket.DefaultDialer
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.registry == nil {
		l.registry = NewHandlerRegistry()
	}
	return l
}

// Connect dials the socket with the current access token as bearer.
func (l *Listener) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return ErrAlreadyConnected
	}
	token := l.tokens.Access()
	if token == "" {
		return ErrNoToken
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := l.dialer.DialContext(ctx, l.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial realtime socket: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial realtime socket: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	l.conn = conn
	l.send = make(chan []byte, 256)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.writePump(runCtx, conn, l.send)
	go l.readPump(runCtx, conn, l.done)
	return nil
}

// Connected reports whether a subscription is live.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Close releases the subscription and waits for the read loop to finish.
// Closing an idle listener is a no-op.
func (l *Listener) Close() error {
	l.mu.Lock()
	conn, cancel, done := l.conn, l.cancel, l.done
	l.conn, l.cancel, l.done, l.send = nil, nil, nil, nil
	l.mu.Unlock()

	if conn == nil {
		return nil
	}
	cancel()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	err := conn.Close()
	<-done
	return err
}

// SendMessage queues a message for the server.
func (l *Listener) SendMessage(msg *wstypes.WSMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	l.mu.Lock()
	send := l.send
	l.mu.Unlock()
	if send == nil {
		return ErrNotConnected
	}

	select {
	case send <- data:
		return nil
	default:
		return fmt.Errorf("realtime send buffer full")
	}
}

// readPump handles incoming messages from the server
func (l *Listener) readPump(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer func() {
		l.dispatch(ctx, &wstypes.WSMessage{Type: wstypes.EventTypeDisconnect, Timestamp: time.Now()})
		l.forget(conn)
		close(done)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	l.dispatch(ctx, &wstypes.WSMessage{Type: wstypes.EventTypeConnect, Timestamp: time.Now()})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				l.logger.Warn("realtime read failed", zap.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := wstypes.ParseMessage(data)
		if err != nil {
			l.logger.Warn("unparseable realtime message", zap.Error(err))
			continue
		}
		if msg.Type == wstypes.EventTypePing {
			if pong, err := wstypes.NewMessage(wstypes.EventTypePong, nil); err == nil {
				_ = l.SendMessage(pong)
			}
			continue
		}
		l.dispatch(ctx, msg)
	}
}

// writePump handles outgoing messages and keepalive pings
func (l *Listener) writePump(ctx context.Context, conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, msg *wstypes.WSMessage) {
	handler, ok := l.registry.GetHandler(msg.Type)
	if !ok {
		l.logger.Debug("no handler for realtime event", zap.String("type", string(msg.Type)))
		return
	}
	if err := handler.HandleMessage(ctx, l, msg); err != nil {
		l.logger.Warn("realtime handler failed",
			zap.String("type", string(msg.Type)),
			zap.Error(err),
		)
	}
}

// forget drops the connection when the server went away on its own.
func (l *Listener) forget(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == conn {
		l.cancel()
		_ = conn.Close()
		l.conn, l.cancel, l.done, l.send = nil, nil, nil, nil
	}
}
