// Package state holds the host's local view of the backend's evolving
// internal state: the agent snapshot and the conversation log.
//
// The snapshot is updated exclusively by partial merges (see Delta): a
// payload that omits a field group leaves the prior values untouched,
// and applying the same payload twice is a no-op. The conversation log
// is append-only and arrival-ordered; it is never reordered or pruned
// within a session.
package state
