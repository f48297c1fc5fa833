package local

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dialoguemesh/core"
)

// Interface compliance (compile-time assertion)
var _ core.Outbox = (*Endpoint)(nil)

func TestBus_RoutesByAddress(t *testing.T) {
	bus := NewBus()
	a := bus.Attach("a")
	b := bus.Attach("b")

	env := core.Envelope{To: "b", Sender: "a", Message: core.Message{Performative: "ping"}}
	a.Put(env)

	select {
	case got := <-b.Inbox():
		assert.Equal(t, env, got)
	case <-time.After(time.Second):
		t.Fatal("envelope was not delivered")
	}
	assert.Empty(t, a.Inbox(), "sender must not receive its own envelope")
}

func TestBus_UnknownAddressDropped(t *testing.T) {
	bus := NewBus()
	a := bus.Attach("a")
	a.Put(core.Envelope{To: "nobody", Sender: "a"})
	assert.Empty(t, a.Inbox())
}

func TestBus_FullInboxDrops(t *testing.T) {
	bus := NewBus(WithBufferSize(1))
	a := bus.Attach("a")
	b := bus.Attach("b")

	a.Put(core.Envelope{To: "b", Sender: "a", Message: core.Message{MessageID: 1}})
	a.Put(core.Envelope{To: "b", Sender: "a", Message: core.Message{MessageID: 2}})

	got := <-b.Inbox()
	assert.Equal(t, 1, got.Message.MessageID)
	assert.Empty(t, b.Inbox(), "second envelope must have been dropped")
}

func TestBus_ConcurrentPutDetach(t *testing.T) {
	// Delivery racing a detach of the same address must drop the envelope,
	// never panic on a closed inbox.
	bus := NewBus(WithBufferSize(1))
	sender := bus.Attach("sender")

	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		bus.Attach("target")
		wg.Add(2)
		go func() {
			defer wg.Done()
			sender.Put(core.Envelope{To: "target", Sender: "sender"})
		}()
		go func() {
			defer wg.Done()
			bus.Detach("target")
		}()
		wg.Wait()
	}
}

func TestBus_DetachClosesInbox(t *testing.T) {
	bus := NewBus()
	a := bus.Attach("a")
	bus.Detach("a")

	_, open := <-a.Inbox()
	require.False(t, open, "inbox must be closed after detach")

	// Sending to a detached address drops instead of panicking.
	bus.Attach("b").Put(core.Envelope{To: "a", Sender: "b"})
}
