package statesync

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/admitra/ultron-host/internal/infrastructure/config"
	"github.com/admitra/ultron-host/internal/infrastructure/logging"
	"github.com/admitra/ultron-host/internal/infrastructure/monitoring"
	"github.com/admitra/ultron-host/internal/state"
)

// Client owns the bootstrap fetch, the push-channel subscription, and
// all outbound user-request submissions. Everything it learns lands in
// the shared store and the conversation log.
type Client struct {
	http      *resty.Client
	boot      *resty.Client
	streamURL string

	reconnectInterval time.Duration
	keepaliveInterval time.Duration

	store   *state.Store
	conv    *state.Log
	logger  *logging.Logger
	metrics *monitoring.Metrics

	// busy guards the request channel: one in-flight request at a time.
	busy atomic.Bool

	streamMu     sync.Mutex
	conn         *websocket.Conn
	connState    ConnState
	onConnChange func(ConnState)
	stop         chan struct{}
	streamDone   chan struct{}
}

// New creates a sync client for the backend described by cfg.
//
// The bootstrap fetch rides a retryable transport: the backend may
// still be coming up when the host activates. Chat and mute calls use
// a plain client with no retries, since a failed request surfaces to
// the user instead of being replayed.
func New(cfg config.BackendConfig, store *state.Store, conv *state.Log, logger *logging.Logger, metrics *monitoring.Metrics) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.RetryWaitMin = 500 * time.Millisecond
	retry.RetryWaitMax = 5 * time.Second
	retry.Logger = nil

	boot := resty.NewWithClient(retry.StandardClient()).
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "UltronHost/1.0")

	plain := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", "UltronHost/1.0")

	return &Client{
		http:              plain,
		boot:              boot,
		streamURL:         streamURL(cfg.BaseURL, cfg.StreamPath),
		reconnectInterval: cfg.ReconnectInterval,
		keepaliveInterval: cfg.KeepaliveInterval,
		store:             store,
		conv:              conv,
		logger:            logger,
		metrics:           metrics,
		connState:         StateConnecting,
	}
}

// Busy reports whether a user request is currently in flight.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

// streamURL derives the push-channel endpoint from the HTTP base URL.
func streamURL(baseURL, path string) string {
	ws := strings.Replace(baseURL, "http://", "ws://", 1)
	ws = strings.Replace(ws, "https://", "wss://", 1)
	return strings.TrimSuffix(ws, "/") + path
}

// apply merges a delta and counts it. Empty deltas are dropped here so
// the merge counter matches what actually changed hands.
func (c *Client) apply(d state.Delta) {
	if d.Empty() {
		return
	}
	c.store.Apply(d)
	c.metrics.MergesApplied.Inc()
}

// append adds a conversation entry and counts it by kind.
func (c *Client) append(e state.Entry) {
	c.conv.Append(e)
	c.metrics.EntriesAppended.WithLabelValues(e.Kind.String()).Inc()
}
