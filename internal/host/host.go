package host

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/infrastructure/logging"
	"github.com/admitra/ultron-host/internal/state"
	"github.com/admitra/ultron-host/internal/statesync"
	"github.com/admitra/ultron-host/internal/supervisor"
)

// Presenter is the external presentation collaborator. The core tells
// it when to show itself and feeds it whatever state it should render;
// how anything looks is not this package's concern.
type Presenter interface {
	Present()
	EntryAppended(state.Entry)
	StateChanged(state.AgentState)
	ConnectionChanged(statesync.ConnState)
}

// Host owns the supervisor and the sync client for one application
// run. It is constructed once at startup; lifecycle transitions are
// explicit methods, not ambient callbacks.
type Host struct {
	supervisor *supervisor.Supervisor
	sync       *statesync.Client
	presenter  Presenter
	delay      time.Duration
	logger     *logging.Logger
}

// New wires the store and log listeners into the presenter and
// returns the host.
func New(sup *supervisor.Supervisor, sync *statesync.Client, store *state.Store, conv *state.Log, presenter Presenter, delay time.Duration, logger *logging.Logger) *Host {
	store.OnChange(presenter.StateChanged)
	conv.OnAppend(presenter.EntryAppended)
	sync.OnConnectionChange(presenter.ConnectionChanged)

	return &Host{
		supervisor: sup,
		sync:       sync,
		presenter:  presenter,
		delay:      delay,
		logger:     logger,
	}
}

// Run drives one session: launch the backend, wait the presentation
// delay, present the UI, bootstrap, open the push channel, then block
// until ctx is canceled and shut down.
//
// A launch failure does not abort the run; the user still gets a UI
// and can retry once the backend is fixed. An uncaught panic stops the
// backend before the host dies.
func (h *Host) Run(ctx context.Context) error {
	defer h.recoverFatal()

	if err := h.supervisor.OnReady(); err != nil {
		h.logger.Warn("continuing without a live backend", zap.Error(err))
	}

	select {
	case <-time.After(h.delay):
	case <-ctx.Done():
		h.Shutdown()
		return ctx.Err()
	}

	h.presenter.Present()

	if err := h.sync.Bootstrap(ctx); err != nil {
		h.logger.Warn("bootstrap failed", zap.Error(err))
	}
	h.sync.OpenStream(ctx)

	<-ctx.Done()
	h.Shutdown()
	return nil
}

// Shutdown tears the session down: close the push channel, then stop
// the backend. Idempotent, like the transitions it delegates to.
func (h *Host) Shutdown() {
	h.sync.CloseStream()
	h.supervisor.OnBeforeQuit()
}

func (h *Host) recoverFatal() {
	if r := recover(); r != nil {
		h.supervisor.OnFatal(fmt.Errorf("panic: %v", r))
		panic(r)
	}
}
