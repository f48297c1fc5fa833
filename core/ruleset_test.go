package core

import "testing"

func testRuleset() Ruleset {
	return NewRuleset(
		[]Performative{"cfp"},
		map[Performative][]Performative{
			"cfp":     {"propose", "decline"},
			"propose": {"accept", "decline"},
			"accept":  {"inform"},
		},
		[]Performative{"decline", "inform"},
	)
}

func TestRuleset_ValidOpening(t *testing.T) {
	rs := testRuleset()
	if !rs.ValidOpening("cfp") {
		t.Errorf("expected cfp to be a valid opening")
	}
	if rs.ValidOpening("accept") {
		t.Errorf("accept must not open a dialogue")
	}
}

func TestRuleset_ValidReply(t *testing.T) {
	rs := testRuleset()
	cases := []struct {
		last, next Performative
		want       bool
	}{
		{"cfp", "propose", true},
		{"cfp", "accept", false},
		{"propose", "accept", true},
		{"propose", "propose", false},
		{"inform", "cfp", false}, // terminal performatives have no replies
	}
	for _, tc := range cases {
		if got := rs.ValidReply(tc.last, tc.next); got != tc.want {
			t.Errorf("ValidReply(%s, %s) = %v, want %v", tc.last, tc.next, got, tc.want)
		}
	}
}

func TestRuleset_Terminal(t *testing.T) {
	rs := testRuleset()
	if !rs.Terminal("decline") || !rs.Terminal("inform") {
		t.Errorf("expected decline and inform to be terminal")
	}
	if rs.Terminal("propose") {
		t.Errorf("propose must not be terminal")
	}
}

func TestRuleset_RepliesToSorted(t *testing.T) {
	rs := testRuleset()
	got := rs.RepliesTo("cfp")
	if len(got) != 2 || got[0] != "decline" || got[1] != "propose" {
		t.Errorf("expected sorted allowed-next set [decline propose], got %v", got)
	}
	if rs.RepliesTo("inform") != nil {
		t.Errorf("expected nil allowed-next set for terminal performative")
	}
}

func TestMessage_First(t *testing.T) {
	if !(Message{MessageID: 1, Target: 0}).First() {
		t.Errorf("id=1 target=0 must be an opening shape")
	}
	if (Message{MessageID: 2, Target: 1}).First() {
		t.Errorf("id=2 target=1 must not be an opening shape")
	}
}
