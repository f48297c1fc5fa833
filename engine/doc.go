// Package engine runs the single control goroutine that owns all dialogue
// and scheduler state.
//
// Transports deliver inbound envelopes into a channel from their own I/O
// goroutines; the engine drains that channel, routes every message through
// the registry, dispatches the matched dialogue to the application handler
// and drives the scheduler from a fixed-period timer. Because all mutation
// happens on this one goroutine, the registry and scheduler need no internal
// locking.
//
// The loop blocks only at the channel receive and the timer wait; stopping
// the context cancels it cooperatively at the next blocking point.
package engine
