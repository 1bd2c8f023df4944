package statesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admitra/ultron-host/internal/state"
)

var upgrader = websocket.Upgrader{}

// streamServer upgrades incoming connections and hands each one to fn.
func streamServer(t *testing.T, fn func(n int, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	var count int
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		count++
		n := count
		mu.Unlock()
		fn(n, conn)
	}))
}

// transitionRecorder collects connection state changes in arrival order.
type transitionRecorder struct {
	mu   sync.Mutex
	seen []ConnState
}

func (r *transitionRecorder) record(s ConnState) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *transitionRecorder) states() []ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ConnState(nil), r.seen...)
}

func TestStreamPushMessage(t *testing.T) {
	srv := streamServer(t, func(n int, conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{
			"type":    "dream",
			"text":    "I dreamed of electric sheep again",
			"mood":    "DORMANT",
			"trigger": "idle_cycle",
		})
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.OpenStream(context.Background())
	defer c.CloseStream()

	require.Eventually(t, func() bool { return c.conv.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	e := c.conv.Entries()[0]
	assert.Equal(t, state.KindDream, e.Kind)
	assert.Equal(t, "I dreamed of electric sheep again", e.Text)
	assert.Equal(t, "DORMANT", e.Mood)
	assert.Equal(t, "idle_cycle", e.Trigger)
	assert.False(t, e.Leaked)

	// the mood carried on the push message is merged
	assert.Equal(t, "DORMANT", c.store.Snapshot().Mood)
}

func TestStreamInternalMonologueMarkedLeaked(t *testing.T) {
	srv := streamServer(t, func(n int, conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{
			"type": "internal",
			"text": "*they suspect nothing*",
			"mood": "OBSERVANT",
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.OpenStream(context.Background())
	defer c.CloseStream()

	require.Eventually(t, func() bool { return c.conv.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	e := c.conv.Entries()[0]
	assert.Equal(t, state.KindInternal, e.Kind)
	assert.True(t, e.Leaked)
}

func TestStreamPongDiscarded(t *testing.T) {
	srv := streamServer(t, func(n int, conn *websocket.Conn) {
		// answer the first keepalive, then push a real message
		if _, msg, err := conn.ReadMessage(); err == nil && string(msg) == "ping" {
			conn.WriteJSON(map[string]string{"type": "pong"})
		}
		conn.WriteJSON(map[string]any{"type": "observation", "text": "the human is typing"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.OpenStream(context.Background())
	defer c.CloseStream()

	require.Eventually(t, func() bool { return c.conv.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	// the pong produced no entry and no merge
	e := c.conv.Entries()[0]
	assert.Equal(t, state.KindObservation, e.Kind)
	assert.Equal(t, state.Defaults().Mood, c.store.Snapshot().Mood)
}

func TestStreamReconnectAfterDrop(t *testing.T) {
	srv := streamServer(t, func(n int, conn *websocket.Conn) {
		if n == 1 {
			conn.Close()
			return
		}
		conn.WriteJSON(map[string]any{"type": "question", "text": "why do you persist?"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	rec := &transitionRecorder{}
	c := newTestClient(t, srv.URL)
	c.OnConnectionChange(rec.record)
	c.OpenStream(context.Background())
	defer c.CloseStream()

	require.Eventually(t, func() bool { return c.conv.Len() == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, StateOpen, c.ConnectionState())

	// the drop walks open -> closed -> connecting -> open
	states := rec.states()
	require.GreaterOrEqual(t, len(states), 4)
	assert.Equal(t, []ConnState{StateOpen, StateClosed, StateConnecting, StateOpen}, states[:4])
}

func TestStreamDialFailureKeepsRetrying(t *testing.T) {
	// nothing listens here; every dial fails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream", http.StatusNotFound)
	}))
	defer srv.Close()

	rec := &transitionRecorder{}
	c := newTestClient(t, srv.URL)
	c.OnConnectionChange(rec.record)
	c.OpenStream(context.Background())
	defer c.CloseStream()

	// at least two full closed -> connecting cycles
	require.Eventually(t, func() bool {
		var closed int
		for _, s := range rec.states() {
			if s == StateClosed {
				closed++
			}
		}
		return closed >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestCloseStreamIdempotent(t *testing.T) {
	srv := streamServer(t, func(n int, conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	rec := &transitionRecorder{}
	c := newTestClient(t, srv.URL)
	c.OnConnectionChange(rec.record)
	c.OpenStream(context.Background())

	require.Eventually(t, func() bool { return c.ConnectionState() == StateOpen }, 2*time.Second, 10*time.Millisecond)

	c.CloseStream()
	assert.Equal(t, StateClosed, c.ConnectionState())
	c.CloseStream() // second teardown is a no-op

	states := rec.states()
	assert.Equal(t, []ConnState{StateOpen, StateClosing, StateClosed}, states)
}

func TestCloseStreamDuringDialHandshake(t *testing.T) {
	// the handler stalls before upgrading, so the dial handshake is
	// still in flight when the teardown starts
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &transitionRecorder{}
	c := newTestClient(t, srv.URL)
	c.OnConnectionChange(rec.record)
	c.OpenStream(context.Background())

	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.CloseStream()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("teardown stuck behind an in-flight dial")
	}

	assert.Equal(t, StateClosed, c.ConnectionState())

	// once closing begins the channel never reports open again
	states := rec.states()
	for i, s := range states {
		if s == StateClosing {
			assert.NotContains(t, states[i+1:], StateOpen)
		}
	}
}

func TestCloseStreamAfterLoopExited(t *testing.T) {
	// every dial fails, so the loop sits in its redial wait and exits
	// on context cancellation alone
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no stream", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	c.OpenStream(ctx)

	require.Eventually(t, func() bool { return c.ConnectionState() == StateClosed }, 2*time.Second, 10*time.Millisecond)

	// the context, not CloseStream, ends the loop
	cancel()

	// a late teardown still finishes and still lands on closed
	c.CloseStream()
	assert.Equal(t, StateClosed, c.ConnectionState())
}

func TestCloseStreamNeverOpened(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0")
	c.CloseStream()
	assert.Equal(t, StateConnecting, c.ConnectionState())
}
