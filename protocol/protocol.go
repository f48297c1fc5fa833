// Package protocol provides ready-made performative rulesets for common
// interaction patterns. The engine itself is protocol-agnostic; these are
// convenience grammars applications can use as-is or as templates.
package protocol

import "github.com/hupe1980/dialoguemesh/core"

// Negotiation performatives.
const (
	// PerformativeCFP opens a negotiation with a call for proposals.
	PerformativeCFP core.Performative = "cfp"
	// PerformativePropose answers a cfp or counters a proposal.
	PerformativePropose core.Performative = "propose"
	// PerformativeAccept accepts the current proposal.
	PerformativeAccept core.Performative = "accept"
	// PerformativeMatchAccept confirms an accept from the other side.
	PerformativeMatchAccept core.Performative = "match_accept"
	// PerformativeDecline rejects and ends the negotiation.
	PerformativeDecline core.Performative = "decline"
	// PerformativeInform carries the closing information exchange.
	PerformativeInform core.Performative = "inform"
	// PerformativeEnd closes a negotiation after the inform exchange.
	PerformativeEnd core.Performative = "end"
)

// Request/reply performatives.
const (
	// PerformativeRequest opens a request/reply exchange.
	PerformativeRequest core.Performative = "request"
	// PerformativeReply answers a request successfully.
	PerformativeReply core.Performative = "reply"
	// PerformativeError reports a protocol-level failure, including
	// asynchronous delivery failures surfaced by the transport.
	PerformativeError core.Performative = "error"
)

// Negotiation returns the two-party negotiation grammar: a cfp is answered
// with a proposal or a decline, proposals can be countered, an accept is
// confirmed with a match-accept, and informs are exchanged until end.
func Negotiation() core.Ruleset {
	return core.NewRuleset(
		[]core.Performative{PerformativeCFP},
		map[core.Performative][]core.Performative{
			PerformativeCFP:         {PerformativePropose, PerformativeDecline},
			PerformativePropose:     {PerformativePropose, PerformativeAccept, PerformativeDecline},
			PerformativeAccept:      {PerformativeMatchAccept, PerformativeDecline},
			PerformativeMatchAccept: {PerformativeInform, PerformativeDecline},
			PerformativeInform:      {PerformativeInform, PerformativeEnd},
		},
		[]core.Performative{PerformativeDecline, PerformativeEnd},
	)
}

// RequestReply returns the minimal serialized-submission grammar: a request
// is answered with exactly one reply or one error, both terminal. The error
// performative doubles as the scheduler's failure signal.
func RequestReply() core.Ruleset {
	return core.NewRuleset(
		[]core.Performative{PerformativeRequest},
		map[core.Performative][]core.Performative{
			PerformativeRequest: {PerformativeReply, PerformativeError},
		},
		[]core.Performative{PerformativeReply, PerformativeError},
	)
}
