package statesync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/admitra/ultron-host/internal/state"
)

// Bootstrap issues the one-shot fetch for the full current snapshot
// and merges only the fields present in the response.
func (c *Client) Bootstrap(ctx context.Context) error {
	var out bootstrapResponse
	resp, err := c.boot.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/state")
	if err != nil {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("bootstrap: %w", err)
	}
	if resp.IsError() {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("bootstrap: %w: %s", ErrRequestFailed, resp.Status())
	}

	c.apply(out.delta())
	c.logger.Info("bootstrap complete",
		zap.String("mood", c.store.Snapshot().Mood),
	)
	return nil
}

// SendRequest submits a user request. A second call while one is
// outstanding is rejected with ErrBusy and leaves no trace in the log.
//
// The user entry is appended optimistically before the call is issued.
// On success exactly one agent entry follows (plus one internal entry
// when the response leaks a private thought) and any returned state
// fields are merged. On failure exactly one error entry is appended
// and the prior snapshot is untouched.
func (c *Client) SendRequest(ctx context.Context, text string) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	c.append(state.NewEntry(state.KindUser, text))

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{Text: text}).
		SetResult(&out).
		Post("/chat")
	if err != nil || resp.IsError() {
		c.metrics.RequestFailures.Inc()
		reason := resp.Status()
		if err != nil {
			reason = err.Error()
		}
		c.logger.Warn("chat request failed", zap.String("reason", reason))
		c.append(state.NewEntry(state.KindError, "request failed: "+reason))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status())
	}

	agent := state.NewEntry(state.KindAgent, out.Response)
	agent.Mood = out.Mood
	agent.ToolUsed = out.ToolUsed
	agent.Success = out.Success
	c.append(agent)

	if out.LeakedThought != nil && *out.LeakedThought != "" {
		leak := state.NewEntry(state.KindInternal, *out.LeakedThought)
		leak.Mood = out.Mood
		leak.Leaked = true
		c.append(leak)
	}

	c.apply(out.delta())
	return nil
}

// ToggleMute flips the voice mute flag. The local value is updated
// strictly from the server-confirmed response, never optimistically;
// a failed call leaves the prior value unchanged.
func (c *Client) ToggleMute(ctx context.Context) error {
	current := c.store.Snapshot().VoiceMuted

	var out muteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(muteRequest{Muted: !current}).
		SetResult(&out).
		Post("/mute")
	if err != nil {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status())
	}

	muted := out.Muted
	c.apply(state.Delta{VoiceMuted: &muted})
	return nil
}

// RefreshStats fetches the backend's status endpoint once and merges
// the returned telemetry and mood.
func (c *Client) RefreshStats(ctx context.Context) error {
	var out statusResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/status")
	if err != nil {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		c.metrics.RequestFailures.Inc()
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status())
	}

	c.apply(out.delta())
	return nil
}
