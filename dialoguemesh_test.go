package dialoguemesh_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dialoguemesh"
	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/dialogue"
	"github.com/hupe1980/dialoguemesh/protocol"
	"github.com/hupe1980/dialoguemesh/scheduler"
	"github.com/hupe1980/dialoguemesh/transport/local"
)

// Full round trip over the local bus: the client submits a request through
// the scheduler, the server replies through the matched dialogue, and the
// client reports the outcome back to the scheduler.
func TestMesh_RequestReplyRoundTrip(t *testing.T) {
	bus := local.NewBus()
	clientEP := bus.Attach("client")
	serverEP := bus.Attach("server")

	done := make(chan core.Message, 1)

	var client *dialoguemesh.Mesh
	client = dialoguemesh.New("client", protocol.RequestReply(), clientEP.Inbox(), clientEP,
		dialoguemesh.WithHandlerFunc(func(ctx context.Context, d *dialogue.Dialogue, msg core.Message) {
			require.NoError(t, client.Scheduler().FinishProcessing(d))
			done <- msg
		}),
		dialoguemesh.WithSchedulerOptions(
			scheduler.WithTickInterval(5*time.Millisecond),
			scheduler.WithMaxProcessing(time.Second),
		),
	)

	server := dialoguemesh.New("server", protocol.RequestReply(), serverEP.Inbox(), serverEP,
		dialoguemesh.WithHandlerFunc(func(ctx context.Context, d *dialogue.Dialogue, msg core.Message) {
			reply, err := d.Reply(protocol.PerformativeReply, map[string]any{"status": "ok"})
			require.NoError(t, err)
			serverEP.Put(core.Envelope{To: reply.To, Sender: reply.Sender, Message: reply})
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()
	go func() { _ = server.Run(ctx) }()

	client.Submit(scheduler.Request{
		Counterparty: "server",
		Performative: protocol.PerformativeRequest,
		Payload:      map[string]any{"op": "ping"},
	})

	select {
	case msg := <-done:
		assert.Equal(t, protocol.PerformativeReply, msg.Performative)
		assert.True(t, msg.Reference.Complete(), "reply must carry the completed reference")
	case <-time.After(5 * time.Second):
		t.Fatal("round trip did not complete")
	}
}
