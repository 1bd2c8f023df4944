// Package statesync reconciles the backend's evolving internal state
// into the local snapshot and conversation log.
//
// Three sources feed the same store: a one-shot bootstrap fetch, the
// persistent push channel, and responses to user-submitted requests.
// Every inbound payload is reduced to a state.Delta and merged under
// the partial-merge rule; the conversation log receives one entry per
// non-keepalive inbound message.
package statesync
