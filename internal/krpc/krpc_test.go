package krpc

import (
	"net"
	"testing"

	"github.com/mjolnir-labs/burrow/internal/bencode"
	"github.com/mjolnir-labs/burrow/internal/dht"
)

func selfID() dht.NodeId {
	var id dht.NodeId
	for i := range id {
		id[i] = byte(i)
	}
	return id
}

func TestBuildFindNodeRequest(t *testing.T) {
	msg, t1, err := BuildFindNodeRequest(selfID(), selfID(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(t1) != TransactionIDSize {
		t.Fatalf("transaction id length = %d, want %d", len(t1), TransactionIDSize)
	}

	_, t2, err := BuildFindNodeRequest(selfID(), selfID(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(t1) == string(t2) {
		t.Fatal("two independently built requests produced the same transaction id")
	}

	y, ok := msg.Get("y")
	if !ok {
		t.Fatal("missing y")
	}
	yb, _ := y.AsBytes()
	if string(yb) != "q" {
		t.Fatalf("y = %q, want q", yb)
	}

	q, _ := msg.Get("q")
	qb, _ := q.AsBytes()
	if string(qb) != MethodFindNode {
		t.Fatalf("q = %q, want %q", qb, MethodFindNode)
	}

	a, ok := msg.Get("a")
	if !ok || a.Kind() != bencode.KindDict {
		t.Fatal("missing or invalid a dict")
	}
	if _, ok := a.Get("id"); !ok {
		t.Fatal("a.id missing")
	}
	if _, ok := a.Get("target"); !ok {
		t.Fatal("a.target missing")
	}
}

func TestBuildRequestRequiresID(t *testing.T) {
	_, _, err := BuildRequest("ping", map[string]bencode.Value{}, "")
	if err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		y    string
		want MessageType
	}{
		{"query", "q", TypeQuery},
		{"response", "r", TypeResponse},
		{"error", "e", TypeError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := bencode.Dict(map[string]bencode.Value{"y": bencode.String(tc.y)})
			got, err := Classify(msg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyRejectsMissingY(t *testing.T) {
	msg := bencode.Dict(map[string]bencode.Value{})
	if _, err := Classify(msg); err == nil {
		t.Fatal("expected error for missing y")
	}
}

func TestClassifyRejectsUnknownY(t *testing.T) {
	msg := bencode.Dict(map[string]bencode.Value{"y": bencode.String("z")})
	if _, err := Classify(msg); err == nil {
		t.Fatal("expected error for unhandled y value")
	}
}

func TestParseFindNodeResponseRoundTrip(t *testing.T) {
	responder := selfID()
	var n1, n2 dht.NodeId
	n1[0], n2[0] = 0x11, 0x22

	contacts := []dht.NodeContactInfo{
		{ID: n1, Address: net.UDPAddr{IP: net.ParseIP("1.2.3.4").To4(), Port: 6881}},
		{ID: n2, Address: net.UDPAddr{IP: net.ParseIP("5.6.7.8").To4(), Port: 6882}},
	}

	resp := BuildFindNodeResponse([]byte{0xAB, 0xCD}, responder, contacts)

	parsed, err := ParseFindNodeResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.ResponderID != responder {
		t.Fatalf("ResponderID mismatch")
	}
	if len(parsed.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(parsed.Nodes))
	}
	if parsed.Nodes[0].ID != n1 || parsed.Nodes[1].ID != n2 {
		t.Fatalf("node ids did not round-trip")
	}
}

func TestParseFindNodeResponseRejectsTruncatedNodes(t *testing.T) {
	id := selfID()
	resp := bencode.Dict(map[string]bencode.Value{
		"t": bencode.Bytes([]byte{1, 2}),
		"y": bencode.String("r"),
		"r": bencode.Dict(map[string]bencode.Value{
			"id":    bencode.Bytes(id[:]),
			"nodes": bencode.Bytes(make([]byte, 25)), // not a multiple of 26
		}),
	})

	if _, err := ParseFindNodeResponse(resp); err == nil {
		t.Fatal("expected error for truncated nodes field")
	}
}
