package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/introspect"
)

func TestRegistry_CreateStoresIncompleteLabel(t *testing.T) {
	reg := NewRegistry(buyer, negotiationRules(), WithReferenceFunc(sequentialRefs("b")))

	_, d, err := reg.Create(seller, "cfp", "widgets")
	require.NoError(t, err)

	assert.True(t, d.Label().Incomplete())
	stored, ok := reg.Get(d.Label())
	require.True(t, ok)
	assert.Same(t, d, stored)
}

func TestRegistry_CreateRejectsInvalidOpening(t *testing.T) {
	reg := NewRegistry(buyer, negotiationRules())
	_, _, err := reg.Create(seller, "accept", nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_CompletionHappensExactlyOnce(t *testing.T) {
	buyerReg := NewRegistry(buyer, negotiationRules(), WithReferenceFunc(sequentialRefs("b")))
	sellerReg := NewRegistry(seller, negotiationRules(), WithReferenceFunc(sequentialRefs("s")))

	cfp, buyerD, err := buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	incomplete := buyerD.Label()
	require.True(t, incomplete.Incomplete())

	sellerD, err := sellerReg.Update(cfp)
	require.NoError(t, err)
	assert.False(t, sellerD.Label().Incomplete(), "responder-side labels are complete from birth")

	propose, err := sellerD.Reply("propose", 42)
	require.NoError(t, err)
	routed, err := buyerReg.Update(propose)
	require.NoError(t, err)

	assert.Same(t, buyerD, routed)
	assert.False(t, buyerD.Label().Incomplete())
	assert.Equal(t, "s-1", buyerD.Label().ResponderReference)

	// The old incomplete key no longer resolves directly but the entry moved.
	_, ok := buyerReg.Get(incomplete)
	assert.False(t, ok)
	moved, ok := buyerReg.Get(buyerD.Label())
	require.True(t, ok)
	assert.Same(t, buyerD, moved)
}

func TestRegistry_StragglerRoutesViaIncompleteMapping(t *testing.T) {
	buyerReg := NewRegistry(buyer, negotiationRules(), WithReferenceFunc(sequentialRefs("b")))
	sellerReg := NewRegistry(seller, negotiationRules(), WithReferenceFunc(sequentialRefs("s")))

	cfp, buyerD, err := buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	sellerD, err := sellerReg.Update(cfp)
	require.NoError(t, err)
	propose, err := sellerD.Reply("propose", 42)
	require.NoError(t, err)
	_, err = buyerReg.Update(propose)
	require.NoError(t, err)

	accept, err := buyerD.Reply("accept", nil)
	require.NoError(t, err)
	_, err = sellerReg.Update(accept)
	require.NoError(t, err)
	inform, err := sellerD.Reply("inform", nil)
	require.NoError(t, err)

	// Deliver the inform still addressed by the old incomplete key, as a
	// late message might be.
	inform.Reference.ResponderReference = core.UnassignedReference
	routed, err := buyerReg.Update(inform)
	require.NoError(t, err)
	assert.Same(t, buyerD, routed)
	assert.True(t, buyerD.Ended())
}

func TestRegistry_UnknownDialogueRejected(t *testing.T) {
	reg := NewRegistry(buyer, negotiationRules())

	// Not an opening shape, no matching dialogue.
	_, err := reg.Update(core.Message{
		Performative: "propose",
		Reference:    core.DialogueReference{StarterReference: "nope", ResponderReference: "nada"},
		MessageID:    2,
		Target:       1,
		Sender:       seller,
		To:           buyer,
	})
	assert.ErrorIs(t, err, core.ErrUnknownDialogue)

	// Valid shape but the performative cannot open a dialogue.
	_, err = reg.Update(core.Message{
		Performative: "accept",
		Reference:    core.DialogueReference{StarterReference: "nope"},
		MessageID:    1,
		Target:       0,
		Sender:       seller,
		To:           buyer,
	})
	assert.ErrorIs(t, err, core.ErrUnknownDialogue)
}

func TestRegistry_MessageForOtherAgentRejected(t *testing.T) {
	reg := NewRegistry(buyer, negotiationRules())
	_, err := reg.Update(core.Message{
		Performative: "cfp",
		Reference:    core.DialogueReference{StarterReference: "x"},
		MessageID:    1,
		Target:       0,
		Sender:       seller,
		To:           "someone-else",
	})
	assert.ErrorIs(t, err, core.ErrUnknownDialogue)
}

func TestRegistry_ConflictingResponderReferenceRejected(t *testing.T) {
	buyerReg := NewRegistry(buyer, negotiationRules(), WithReferenceFunc(sequentialRefs("b")))
	sellerReg := NewRegistry(seller, negotiationRules(), WithReferenceFunc(sequentialRefs("s")))

	cfp, _, err := buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	sellerD, err := sellerReg.Update(cfp)
	require.NoError(t, err)
	propose, err := sellerD.Reply("propose", 42)
	require.NoError(t, err)
	_, err = buyerReg.Update(propose)
	require.NoError(t, err)

	// The counterparty re-labels the dialogue with a fresh responder
	// reference mid-conversation.
	forged := propose
	forged.Reference.ResponderReference = "s-forged"
	forged.MessageID = 3
	forged.Target = 2
	forged.Performative = "decline"
	_, err = buyerReg.Update(forged)
	assert.ErrorIs(t, err, core.ErrLabelAlreadyComplete)
}

func TestRegistry_LabelCollisionDetected(t *testing.T) {
	// Two self-initiated dialogues forced onto the same starter reference:
	// completing the second with the same responder reference must collide
	// with the first instead of silently merging.
	buyerReg := NewRegistry(buyer, negotiationRules(), WithReferenceFunc(func() string { return "dup" }))

	cfp1, d1, err := buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	_ = cfp1

	reply := core.Message{
		Performative: "propose",
		Reference:    core.DialogueReference{StarterReference: "dup", ResponderReference: "s-1"},
		MessageID:    2,
		Target:       1,
		Sender:       seller,
		To:           buyer,
	}
	_, err = buyerReg.Update(reply)
	require.NoError(t, err)
	require.False(t, d1.Label().Incomplete())

	// Second Create with the same duplicated reference overwrites the
	// incomplete slot; a reply would complete it onto d1's label.
	_, _, err = buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	reply2 := reply
	_, err = buyerReg.Update(reply2)
	assert.ErrorIs(t, err, core.ErrLabelCollision)
}

func TestRegistry_CountsAndTracksLiveDialogues(t *testing.T) {
	counter := introspect.NewTallyCounter()
	live := introspect.NewLiveSet()
	buyerReg := NewRegistry(buyer, negotiationRules(),
		WithReferenceFunc(sequentialRefs("b")),
		WithCounter(counter),
		WithLiveSet(live),
	)
	sellerReg := NewRegistry(seller, negotiationRules(), WithReferenceFunc(sequentialRefs("s")))

	cfp, buyerD, err := buyerReg.Create(seller, "cfp", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counter.Value())
	assert.Equal(t, 1, live.Len())

	sellerD, err := sellerReg.Update(cfp)
	require.NoError(t, err)
	propose, err := sellerD.Reply("propose", 1)
	require.NoError(t, err)
	_, err = buyerReg.Update(propose)
	require.NoError(t, err)

	// Completion rekeys the live entry; the object is the same dialogue.
	snap := live.Snapshot()
	require.Len(t, snap, 1)
	assert.Same(t, buyerD, snap[buyerD.Label().String()])
}
