// Package scheduler serializes a stream of outbound requests into a single
// in-flight slot with timeout-driven requeueing and retry.
//
// A Scheduler owns a FIFO queue of pending requests, at most one processing
// request, and a set of dialogue labels whose slot was reclaimed by timeout
// but whose late reply must still be tolerated. It advances only when Tick
// is invoked (by the engine's timer) and when reply/failure callbacks arrive
// through the registry's completion path. Ticks and callbacks run on one
// control goroutine; only Enqueue synchronizes, so requests may be submitted
// from any goroutine.
package scheduler
