// Package app owns the counter state and the draw-poll loop.
//
// The loop is single-threaded: each iteration renders a full frame, then
// waits at most PollInterval for one input event. The only way out of the
// loop is the quit key, which moves the run state from Running to Done.
package app
