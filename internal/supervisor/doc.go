// Package supervisor owns the lifecycle of the external backend
// process: launch-spec resolution, spawning with piped standard
// streams, line-oriented log forwarding, and crash observation.
//
// There is no restart policy. A crash is observed and logged; the
// decision to relaunch belongs to whoever restarts the application.
package supervisor
