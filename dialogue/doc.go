// Package dialogue implements the dialogue correlation engine: validated
// per-conversation state machines (Dialogue) and the agent-wide table that
// matches every inbound message to exactly one of them (Registry).
//
// A Dialogue owns an ordered message sequence and enforces the performative
// transition grammar of the protocol's Ruleset. The Registry assigns and
// completes dialogue labels so that a reply can always be traced back to the
// request that caused it, even across timeouts and late deliveries.
//
// All mutation is expected to happen on a single control goroutine (see the
// engine package); neither type locks internally.
package dialogue
