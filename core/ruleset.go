package core

import "sort"

// Role identifies which side of a dialogue the local agent plays.
type Role string

const (
	// RoleStarter marks the party that opened the dialogue.
	RoleStarter Role = "starter"
	// RoleResponder marks the party that received the opening message.
	RoleResponder Role = "responder"
)

// Ruleset is the performative transition grammar of one protocol: which
// performatives may open a dialogue, which performatives may follow each
// performative, and which performatives end the dialogue. The engine is
// fully parameterized by a Ruleset and hardcodes no protocol of its own.
//
// A Ruleset is immutable after construction and safe for concurrent reads.
type Ruleset struct {
	initial  map[Performative]struct{}
	replies  map[Performative]map[Performative]struct{}
	terminal map[Performative]struct{}
}

// NewRuleset builds a Ruleset from the set of valid opening performatives,
// the reply table (performative -> legal next performatives) and the set of
// terminal performatives. The inputs are copied; later mutation of the
// arguments does not affect the returned Ruleset.
func NewRuleset(initial []Performative, replies map[Performative][]Performative, terminal []Performative) Ruleset {
	rs := Ruleset{
		initial:  make(map[Performative]struct{}, len(initial)),
		replies:  make(map[Performative]map[Performative]struct{}, len(replies)),
		terminal: make(map[Performative]struct{}, len(terminal)),
	}
	for _, p := range initial {
		rs.initial[p] = struct{}{}
	}
	for last, nexts := range replies {
		set := make(map[Performative]struct{}, len(nexts))
		for _, p := range nexts {
			set[p] = struct{}{}
		}
		rs.replies[last] = set
	}
	for _, p := range terminal {
		rs.terminal[p] = struct{}{}
	}
	return rs
}

// ValidOpening reports whether p may start a new dialogue.
func (r Ruleset) ValidOpening(p Performative) bool {
	_, ok := r.initial[p]
	return ok
}

// ValidReply reports whether next is in the allowed-next set for last.
func (r Ruleset) ValidReply(last, next Performative) bool {
	set, ok := r.replies[last]
	if !ok {
		return false
	}
	_, ok = set[next]
	return ok
}

// Terminal reports whether p ends a dialogue.
func (r Ruleset) Terminal(p Performative) bool {
	_, ok := r.terminal[p]
	return ok
}

// RepliesTo returns the sorted allowed-next set for last. Used for error
// reporting and introspection.
func (r Ruleset) RepliesTo(last Performative) []Performative {
	set, ok := r.replies[last]
	if !ok {
		return nil
	}
	out := make([]Performative, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
