// Package host coordinates startup and shutdown: the supervisor
// launches the backend, the UI is presented after a fixed delay, and
// only then does state synchronization activate.
//
// The delay stands in for a readiness signal the backend's contract
// does not define; see the launch configuration.
package host
