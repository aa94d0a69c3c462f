// Package netactor wires internal/dht and internal/krpc to a real UDP
// socket behind a single-owner event loop: one goroutine group reads
// datagrams, runs a periodic timeout sweep, and drains a command
// channel, exactly the actor boundary that keeps the routing table free
// of synchronization. Every other goroutine talks to it only through
// the Command/Display channels.
package netactor

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mjolnir-labs/burrow/internal/bencode"
	"github.com/mjolnir-labs/burrow/internal/config"
	"github.com/mjolnir-labs/burrow/internal/dht"
	"github.com/mjolnir-labs/burrow/internal/krpc"
	"github.com/mjolnir-labs/burrow/internal/retry"
)

const udpReadBufferSize = 2048

// pendingQuery tracks an outstanding request this actor sent, keyed by
// its transaction id, so a reply can be matched back to what triggered
// it. This is the single t-keyed map spec.md's Non-goals carve out of
// "transaction-id correlation" as in scope: one actor, its own requests.
type pendingQuery struct {
	addr    *net.UDPAddr
	method  string
	sentAt  time.Time
	onReply func(msg bencode.Value)
}

// Actor owns the routing table and the UDP socket. It is not safe to
// call its methods from outside its own Run goroutine; all external
// interaction happens via Commands and Display.
type Actor struct {
	cfg    config.Config
	selfID dht.NodeId
	table  *dht.RoutingTable
	conn   *net.UDPConn
	logger *slog.Logger

	commands chan Command
	display  chan Display

	pending map[string]pendingQuery
}

// New binds a UDP socket at cfg.ListenAddr and returns an actor ready to
// Run. selfID is generated at random if the zero value.
func New(cfg config.Config, logger *slog.Logger) (*Actor, error) {
	selfID := cfg.SelfID
	if selfID == (dht.NodeId{}) {
		var err error
		selfID, err = dht.NewNodeId()
		if err != nil {
			return nil, fmt.Errorf("netactor: generating self id: %w", err)
		}
	}

	addr, err := net.ResolveUDPAddr("udp4", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("netactor: resolving listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("netactor: binding socket: %w", err)
	}

	return &Actor{
		cfg:      cfg,
		selfID:   selfID,
		table:    dht.NewRoutingTable(selfID),
		conn:     conn,
		logger:   logger.With("component", "netactor"),
		commands: make(chan Command, 16),
		display:  make(chan Display, 64),
		pending:  make(map[string]pendingQuery),
	}, nil
}

func (a *Actor) SelfID() dht.NodeId { return a.selfID }

// Commands returns the UI -> Net channel a caller sends on.
func (a *Actor) Commands() chan<- Command { return a.commands }

// Display returns the Net -> UI channel a caller receives from.
func (a *Actor) Display() <-chan Display { return a.display }

// Run first bootstraps from cfg.BootstrapAddr when it is set, then drives
// the read loop, the timeout sweep, and the command loop until ctx is
// canceled or one of them returns an error.
func (a *Actor) Run(ctx context.Context) error {
	if a.cfg.BootstrapAddr != "" {
		a.bootstrap(ctx, a.cfg.BootstrapAddr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.readLoop(gctx) })
	g.Go(func() error { return a.timeoutLoop(gctx) })
	g.Go(func() error { return a.commandLoop(gctx) })

	err := g.Wait()
	a.conn.Close()
	close(a.display)
	return err
}

func (a *Actor) readLoop(ctx context.Context) error {
	buf := make([]byte, udpReadBufferSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		a.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			a.logger.Warn("udp read failed", "error", err)
			continue
		}

		msg, _, err := bencode.Decode(buf[:n])
		if err != nil {
			a.logger.Debug("dropping malformed datagram", "addr", addr, "error", err)
			continue
		}
		a.handleMessage(msg, addr)
	}
}

func (a *Actor) commandLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-a.commands:
			if !ok {
				return nil
			}
			a.handleCommand(ctx, cmd)
		}
	}
}

// timeoutLoop periodically evicts pending queries that never got a
// reply within cfg.ResponseTimeout, so a dead peer doesn't leak a slot
// in the pending map forever.
func (a *Actor) timeoutLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.ResponseTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := time.Now()
			for t, pq := range a.pending {
				if now.Sub(pq.sentAt) > a.cfg.ResponseTimeout {
					delete(a.pending, t)
					a.emit(Warning{Text: fmt.Sprintf("query %s to %s timed out", pq.method, pq.addr)})
				}
			}
		}
	}
}

func (a *Actor) handleCommand(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case Bootstrap:
		a.bootstrap(ctx, c.Addr)
	case FindNode:
		for _, contact := range a.table.FindClosest(c.Target) {
			a.sendFindNode(contact.Address, c.Target)
		}
	}
}

func (a *Actor) bootstrap(ctx context.Context, addr string) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		a.emit(Warning{Text: fmt.Sprintf("bootstrap: resolving %s: %v", addr, err)})
		return
	}

	err = retry.Do(ctx, func(ctx context.Context) error {
		return a.sendPing(udpAddr)
	}, retry.WithMaxAttempts(a.cfg.BootstrapRetries+1))
	if err != nil {
		a.emit(Warning{Text: fmt.Sprintf("bootstrap: %v", err)})
		return
	}

	a.sendFindNode(*udpAddr, a.selfID)
}

func (a *Actor) sendPing(addr *net.UDPAddr) error {
	msg, t, err := krpc.BuildPingRequest(a.selfID, a.cfg.ClientVersion)
	if err != nil {
		return err
	}
	return a.send(addr, msg, t, krpc.MethodPing, nil)
}

func (a *Actor) sendFindNode(addr net.UDPAddr, target dht.NodeId) {
	msg, t, err := krpc.BuildFindNodeRequest(a.selfID, target, a.cfg.ClientVersion)
	if err != nil {
		a.emit(Warning{Text: err.Error()})
		return
	}
	onReply := func(reply bencode.Value) {
		resp, err := krpc.ParseFindNodeResponse(reply)
		if err != nil {
			a.emit(Warning{Text: fmt.Sprintf("find_node reply from %s: %v", addr.String(), err)})
			return
		}
		a.table.Update(dht.NodeContactInfo{ID: resp.ResponderID, Address: addr}, dht.SeenInResponse)
		for _, node := range resp.Nodes {
			a.table.Update(node, dht.SeenInReferral)
			a.emit(NodeDiscovered{Node: node})
		}
		a.emit(BootstrapComplete{TableSize: a.table.Size()})
	}
	if err := a.send(&addr, msg, t, krpc.MethodFindNode, onReply); err != nil {
		a.emit(Warning{Text: err.Error()})
	}
}

func (a *Actor) send(addr *net.UDPAddr, msg bencode.Value, transactionID []byte, method string, onReply func(bencode.Value)) error {
	wire := bencode.Encode(msg)
	if _, err := a.conn.WriteToUDP(wire, addr); err != nil {
		return fmt.Errorf("netactor: writing to %s: %w", addr, err)
	}
	a.pending[hex.EncodeToString(transactionID)] = pendingQuery{
		addr:    addr,
		method:  method,
		sentAt:  time.Now(),
		onReply: onReply,
	}
	return nil
}

func (a *Actor) handleMessage(msg bencode.Value, addr *net.UDPAddr) {
	kind, err := krpc.Classify(msg)
	if err != nil {
		a.logger.Debug("dropping unclassifiable message", "addr", addr, "error", err)
		return
	}

	switch kind {
	case krpc.TypeResponse:
		a.handleResponse(msg, addr)
	case krpc.TypeQuery:
		a.handleQuery(msg, addr)
	case krpc.TypeError:
		t, _ := krpc.TransactionID(msg)
		delete(a.pending, hex.EncodeToString(t))
		a.logger.Debug("peer returned an error envelope", "addr", addr)
	}
}

func (a *Actor) handleResponse(msg bencode.Value, addr *net.UDPAddr) {
	t, err := krpc.TransactionID(msg)
	if err != nil {
		return
	}
	key := hex.EncodeToString(t)
	pq, ok := a.pending[key]
	if !ok {
		a.logger.Debug("response with unknown transaction id", "addr", addr)
		return
	}
	delete(a.pending, key)

	if pq.method == krpc.MethodPing {
		resp, err := krpc.ParsePingResponse(msg)
		if err != nil {
			a.emit(Warning{Text: err.Error()})
			return
		}
		a.table.Update(dht.NodeContactInfo{ID: resp.ResponderID, Address: *addr}, dht.SeenInResponse)
		return
	}
	if pq.onReply != nil {
		pq.onReply(msg)
	}
}

func (a *Actor) handleQuery(msg bencode.Value, addr *net.UDPAddr) {
	t, err := krpc.TransactionID(msg)
	if err != nil {
		return
	}

	q, ok := msg.Get("q")
	if !ok {
		return
	}
	method, _ := q.AsString()

	argsVal, ok := msg.Get("a")
	if !ok {
		return
	}
	idVal, ok := argsVal.Get("id")
	if !ok {
		return
	}
	idBytes, ok := idVal.AsBytes()
	if !ok {
		return
	}
	id, err := dht.ParseNodeId(idBytes)
	if err != nil {
		return
	}
	a.table.Update(dht.NodeContactInfo{ID: id, Address: *addr}, dht.SeenInQuery)

	switch method {
	case krpc.MethodPing:
		resp := krpc.BuildPingResponse(t, a.selfID)
		a.conn.WriteToUDP(bencode.Encode(resp), addr)
	case krpc.MethodFindNode:
		targetVal, ok := argsVal.Get("target")
		if !ok {
			return
		}
		targetBytes, ok := targetVal.AsBytes()
		if !ok {
			return
		}
		target, err := dht.ParseNodeId(targetBytes)
		if err != nil {
			return
		}
		resp := krpc.BuildFindNodeResponse(t, a.selfID, a.table.FindClosest(target))
		a.conn.WriteToUDP(bencode.Encode(resp), addr)
	}
}

func (a *Actor) emit(d Display) {
	select {
	case a.display <- d:
	default:
		a.logger.Warn("display channel full; dropping message")
	}
}
