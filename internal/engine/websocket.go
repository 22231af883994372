package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 16 << 20 // chat pages and file metadata get large

	// pushBuffer bounds events queued between RecvMsgWait calls. The
	// receive loop drains continuously, so the buffer only absorbs bursts.
	pushBuffer = 512
)

type wireCmd struct {
	Corr string `json:"corr"`
	Cmd  string `json:"cmd"`
}

// corrProbe peeks just the correlation id of an inbound frame.
type corrProbe struct {
	Corr string `json:"corr"`
}

// WSEngine talks to an engine core over a websocket. One goroutine owns
// reads; it routes correlated replies to their waiting SendCmd call and
// queues everything else for RecvMsgWait.
type WSEngine struct {
	conn *websocket.Conn
	log  *zap.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan []byte
	closed  bool

	events chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

// Dial connects to the engine websocket endpoint and starts the read loop.
func Dial(ctx context.Context, url string, log *zap.Logger) (*WSEngine, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing engine at %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	e := &WSEngine{
		conn:    conn,
		log:     log,
		pending: make(map[string]chan []byte),
		events:  make(chan []byte, pushBuffer),
		done:    make(chan struct{}),
	}
	go e.readLoop()
	log.Info("connected to engine", zap.String("url", url))
	return e, nil
}

func (e *WSEngine) readLoop() {
	defer e.shutdown()
	for {
		msgType, data, err := e.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.log.Error("engine read failed", zap.Error(err))
			} else {
				e.log.Info("engine connection closed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var probe corrProbe
		if err := json.Unmarshal(data, &probe); err == nil && probe.Corr != "" {
			if ch := e.takePending(probe.Corr); ch != nil {
				ch <- data
				continue
			}
			// A reply nobody waits for (e.g. the caller gave up on its
			// context) still flows to the event queue so it is logged.
		}

		select {
		case e.events <- data:
		case <-e.done:
			return
		default:
			e.log.Warn("event queue full, dropping engine event")
		}
	}
}

// takePending removes and returns the waiter for corr, if any. The
// returned channel has capacity 1, so the send never blocks the read loop.
func (e *WSEngine) takePending(corr string) chan []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.pending[corr]
	if ok {
		delete(e.pending, corr)
	}
	return ch
}

func (e *WSEngine) SendCmd(ctx context.Context, corrID, cmd string) ([]byte, error) {
	ch := make(chan []byte, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	e.pending[corrID] = ch
	e.mu.Unlock()

	e.writeMu.Lock()
	err := e.conn.WriteJSON(wireCmd{Corr: corrID, Cmd: cmd})
	e.writeMu.Unlock()
	if err != nil {
		e.takePending(corrID)
		return nil, fmt.Errorf("writing command: %w", err)
	}

	select {
	case data := <-ch:
		return data, nil
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		e.takePending(corrID)
		return nil, ctx.Err()
	}
}

func (e *WSEngine) RecvMsgWait(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data := <-e.events:
		return data, nil
	case <-timer.C:
		return nil, nil
	case <-e.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// shutdown marks the engine closed and wakes every waiter.
func (e *WSEngine) shutdown() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.pending = make(map[string]chan []byte)
		e.mu.Unlock()
		close(e.done)
		e.conn.Close()
	})
}

func (e *WSEngine) Close() error {
	e.writeMu.Lock()
	e.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	e.writeMu.Unlock()
	e.shutdown()
	return nil
}
