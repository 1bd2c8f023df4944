package statesync

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/state"
)

// ConnState is the push-channel connection state.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosing
	StateClosed
)

// String returns a human-readable connection state label.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionState returns the current push-channel state.
func (c *Client) ConnectionState() ConnState {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	return c.connState
}

// OnConnectionChange registers a single listener invoked on every
// state transition. This feeds the UI's connection indicator.
func (c *Client) OnConnectionChange(fn func(ConnState)) {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	c.onConnChange = fn
}

// OpenStream establishes the persistent push channel in the
// background. On any drop the channel transitions to closed, waits the
// fixed backoff interval, and redials; there is no retry cap. The loop
// runs until ctx is canceled or CloseStream is called.
func (c *Client) OpenStream(ctx context.Context) {
	c.streamMu.Lock()
	if c.streamDone != nil {
		c.streamMu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stop = stop
	c.streamDone = done
	c.streamMu.Unlock()

	go c.streamLoop(ctx, stop, done)
}

// CloseStream tears the push channel down and waits for the loop to
// finish. Safe to call when the stream was never opened.
func (c *Client) CloseStream() {
	c.streamMu.Lock()
	if c.streamDone == nil {
		c.streamMu.Unlock()
		return
	}
	stop := c.stop
	done := c.streamDone
	conn := c.conn
	c.stop = nil
	c.streamDone = nil
	c.streamMu.Unlock()

	c.transition(StateClosing)
	close(stop)
	if conn != nil {
		conn.Close()
	}
	<-done

	// the loop may have already finished on its own before Closing was
	// entered; the teardown still ends on Closed
	c.transition(StateClosed)
}

func (c *Client) streamLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer c.transition(StateClosed)

	// a teardown must also abort an in-flight handshake, which only
	// honors the context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		c.transition(StateConnecting)

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL, nil)
		if err != nil {
			c.logger.Warn("push channel dial failed",
				zap.String("url", c.streamURL),
				zap.Error(err),
			)
			c.transition(StateClosed)
			if !c.waitReconnect(ctx, stop) {
				return
			}
			c.metrics.Reconnects.Inc()
			continue
		}

		// the teardown may have begun while the handshake was in
		// flight; the handle is registered under the lock so exactly
		// one side closes it
		if !c.adoptConn(conn) {
			conn.Close()
			return
		}
		c.transition(StateOpen)
		c.logger.Info("push channel open")

		c.readLoop(conn, stop)

		c.setConn(nil)
		conn.Close()

		if stopped(ctx, stop) {
			return
		}

		c.transition(StateClosed)
		c.logger.Warn("push channel dropped",
			zap.Duration("reconnect_in", c.reconnectInterval),
		)
		if !c.waitReconnect(ctx, stop) {
			return
		}
		c.metrics.Reconnects.Inc()
	}
}

// readLoop consumes push messages until the connection drops. It also
// runs the keepalive writer; the backend answers each ping with a pong
// message, which is discarded without side effect.
func (c *Client) readLoop(conn *websocket.Conn, stop <-chan struct{}) {
	readerDone := make(chan struct{})
	defer close(readerDone)

	go func() {
		ticker := time.NewTicker(c.keepaliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			case <-readerDone:
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		var msg pushMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type == "pong" {
			continue
		}

		c.metrics.PushMessages.WithLabelValues(msg.Type).Inc()

		entry := state.NewEntry(state.KindForPushType(msg.Type), msg.Text)
		entry.Mood = msg.Mood
		entry.Trigger = msg.Trigger
		entry.Leaked = entry.Kind == state.KindInternal
		c.append(entry)

		c.apply(msg.delta())
	}
}

// adoptConn registers a freshly dialed connection. It refuses once
// CloseStream has detached the loop (c.stop is cleared before the stop
// channel closes), so a connection that wins the race is closed by the
// dialer instead of leaking behind a blocked read.
func (c *Client) adoptConn(conn *websocket.Conn) bool {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if c.stop == nil {
		return false
	}
	c.conn = conn
	return true
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.streamMu.Lock()
	c.conn = conn
	c.streamMu.Unlock()
}

// transition moves the connection state machine and notifies the
// listener outside the lock.
func (c *Client) transition(s ConnState) {
	c.streamMu.Lock()
	prev := c.connState
	c.connState = s
	fn := c.onConnChange
	c.streamMu.Unlock()

	if fn != nil && prev != s {
		fn(s)
	}
}

// waitReconnect sleeps the constant backoff interval. It returns false
// when the session is shutting down.
func (c *Client) waitReconnect(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-time.After(c.reconnectInterval):
		return true
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
	}
	return ctx.Err() != nil
}
