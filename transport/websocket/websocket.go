// Package websocket provides a gorilla/websocket transport node. Each node
// serves an HTTP upgrade endpoint for inbound peers, dials outbound peers,
// and exchanges JSON-encoded envelopes over persistent connections.
//
// The node implements the core.Outbox contract and exposes an inbox channel
// for the engine. Message payloads must be JSON-marshalable; this transport
// owns its own plain JSON codec, the engine never sees encoded bytes.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/dialoguemesh/core"
	"github.com/hupe1980/dialoguemesh/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 64
	inboxBuffer    = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// hello is the first frame on every connection, announcing the dialing
// peer's address so envelopes can be routed back.
type hello struct {
	Address core.Address `json:"address"`
}

// Options configures a Node instance.
type Options struct {
	// Logger provides structured logging for connection lifecycle events.
	Logger logging.Logger
}

// WithLogger sets the node logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Node is one websocket transport endpoint: it accepts peer connections,
// dials out to known peers and routes envelopes by address. Implements
// core.Outbox; envelopes for unconnected peers are dropped with a log entry,
// matching the fire-and-forget delivery contract.
type Node struct {
	addr   core.Address
	logger logging.Logger

	mu     sync.RWMutex
	peers  map[core.Address]*peer
	inbox  chan core.Envelope
	server *http.Server
	closed bool
}

// NewNode creates a transport node for the agent at addr.
func NewNode(addr core.Address, optFns ...func(o *Options)) *Node {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Node{
		addr:   addr,
		logger: opts.Logger,
		peers:  make(map[core.Address]*peer),
		inbox:  make(chan core.Envelope, inboxBuffer),
	}
}

// Inbox returns the channel of inbound envelopes for the engine to drain.
func (n *Node) Inbox() <-chan core.Envelope { return n.inbox }

// Listen starts serving the upgrade endpoint at bind (e.g. ":8080"). The
// HTTP server runs on its own goroutine; Listen returns immediately.
func (n *Node) Listen(bind string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", n.handleUpgrade)

	n.mu.Lock()
	n.server = &http.Server{Addr: bind, Handler: mux}
	server := n.server
	n.mu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.Error("websocket server stopped", "error", err.Error())
		}
	}()
}

// Connect dials the peer node at url (e.g. "ws://host:8080/ws"), announces
// this node's address and registers the connection for outbound routing.
func (n *Node) Connect(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}

	if err := conn.WriteJSON(hello{Address: n.addr}); err != nil {
		conn.Close()
		return fmt.Errorf("failed to announce address: %w", err)
	}
	var answer hello
	if err := conn.ReadJSON(&answer); err != nil {
		conn.Close()
		return fmt.Errorf("failed to read peer address: %w", err)
	}

	n.addPeer(answer.Address, conn)
	return nil
}

// handleUpgrade accepts an inbound peer: upgrade, exchange hellos, register.
func (n *Node) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Warn("failed to upgrade connection", "error", err.Error())
		return
	}

	var announce hello
	if err := conn.ReadJSON(&announce); err != nil {
		n.logger.Warn("peer sent no address announcement", "error", err.Error())
		conn.Close()
		return
	}
	if err := conn.WriteJSON(hello{Address: n.addr}); err != nil {
		conn.Close()
		return
	}

	n.addPeer(announce.Address, conn)
}

func (n *Node) addPeer(addr core.Address, conn *websocket.Conn) {
	p := &peer{
		node: n,
		addr: addr,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	n.mu.Lock()
	if old, ok := n.peers[addr]; ok {
		old.close()
	}
	n.peers[addr] = p
	n.mu.Unlock()

	n.logger.Info("peer connected", "peer", string(addr))
	go p.writePump()
	go p.readPump()
}

func (n *Node) removePeer(p *peer) {
	n.mu.Lock()
	if n.peers[p.addr] == p {
		delete(n.peers, p.addr)
	}
	n.mu.Unlock()
	n.logger.Info("peer disconnected", "peer", string(p.addr))
}

// Put encodes env and hands it to the write pump of the peer connection for
// env.To. Implements core.Outbox: unknown peers and full send buffers drop
// the envelope; delivery failures surface asynchronously at protocol level.
func (n *Node) Put(env core.Envelope) {
	n.mu.RLock()
	p, ok := n.peers[env.To]
	n.mu.RUnlock()
	if !ok {
		n.logger.Warn("no connection for peer, envelope dropped", "to", string(env.To))
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		n.logger.Error("failed to encode envelope", "error", err.Error())
		return
	}
	select {
	case p.send <- data:
	default:
		n.logger.Warn("peer send buffer full, envelope dropped", "to", string(env.To))
	}
}

// Close shuts down the server and all peer connections. The inbox channel is
// closed so a draining engine stops.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	server := n.server
	peers := make([]*peer, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	n.peers = make(map[core.Address]*peer)
	// Closed under the lock so deliver cannot race a send against it.
	close(n.inbox)
	n.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
	if server != nil {
		return server.Close()
	}
	return nil
}

// deliver pushes an inbound envelope to the engine, dropping on a full or
// closed inbox.
func (n *Node) deliver(env core.Envelope) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.inbox <- env:
	default:
		n.logger.Warn("inbox full, inbound envelope dropped", "sender", string(env.Sender))
	}
}

// peer is one live connection with its dedicated write pump, following the
// standard gorilla one-reader/one-writer pattern.
type peer struct {
	node *Node
	addr core.Address
	conn *websocket.Conn
	send chan []byte

	once sync.Once
	done chan struct{}
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// readPump reads envelopes from the connection until it fails or closes.
func (p *peer) readPump() {
	defer func() {
		p.node.removePeer(p)
		p.close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.node.logger.Warn("read error", "peer", string(p.addr), "error", err.Error())
			}
			return
		}
		var env core.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			p.node.logger.Warn("malformed envelope dropped", "peer", string(p.addr), "error", err.Error())
			continue
		}
		p.node.deliver(env)
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// periodic pings.
func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case <-p.done:
			return
		case data := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
