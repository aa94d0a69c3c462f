// Package krpc builds and classifies the query/response/error envelopes
// BEP-5 nodes exchange over UDP. Envelopes are bencode dicts; this package
// sits directly on top of internal/bencode and never touches the wire
// itself — that is the net actor's job.
package krpc

import (
	"crypto/rand"
	"fmt"

	"github.com/mjolnir-labs/burrow/internal/bencode"
)

// MessageType is the value of the envelope's "y" key.
type MessageType string

const (
	TypeQuery    MessageType = "q"
	TypeResponse MessageType = "r"
	TypeError    MessageType = "e"
)

// Method names this package knows how to build requests for.
const (
	MethodPing     = "ping"
	MethodFindNode = "find_node"
)

// TransactionIDSize is the length in bytes of a freshly generated
// transaction id. BEP-5 does not mandate a size; 2 bytes matches common
// Mainline DHT implementations and gives 65536 concurrent slots, far more
// than a single-hop actor needs in flight at once.
const TransactionIDSize = 2

// MessageError reports a malformed inbound envelope.
type MessageError struct {
	Reason string
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("krpc: %s", e.Reason)
}

func newMessageError(reason string) error {
	return &MessageError{Reason: reason}
}

// NewTransactionID returns a freshly generated random transaction token.
// Every call produces an independent value — unlike the defective source
// this is grounded on, which reused the query method name as the
// transaction id on one code path, a random token here is never derived
// from message content.
func NewTransactionID() ([]byte, error) {
	t := make([]byte, TransactionIDSize)
	if _, err := rand.Read(t); err != nil {
		return nil, fmt.Errorf("krpc: generating transaction id: %w", err)
	}
	return t, nil
}

// BuildRequest produces a well-formed query envelope for method, with a
// freshly generated transaction id. args must already contain "id". If
// version is non-empty it is attached as the optional "v" field.
func BuildRequest(method string, args map[string]bencode.Value, version string) (bencode.Value, []byte, error) {
	if _, ok := args["id"]; !ok {
		return bencode.Value{}, nil, newMessageError("args missing required \"id\" key")
	}

	t, err := NewTransactionID()
	if err != nil {
		return bencode.Value{}, nil, err
	}

	dict := map[string]bencode.Value{
		"t": bencode.Bytes(t),
		"y": bencode.String(string(TypeQuery)),
		"q": bencode.String(method),
		"a": bencode.Dict(args),
	}
	if version != "" {
		dict["v"] = bencode.String(version)
	}

	return bencode.Dict(dict), t, nil
}

// BuildFindNodeRequest is a convenience wrapper over BuildRequest for the
// one query method the core must support end to end.
func BuildFindNodeRequest(selfID, target [20]byte, version string) (bencode.Value, []byte, error) {
	args := map[string]bencode.Value{
		"id":     bencode.Bytes(selfID[:]),
		"target": bencode.Bytes(target[:]),
	}
	return BuildRequest(MethodFindNode, args, version)
}

// BuildPingRequest builds the simplest KRPC exchange: an "id" and nothing
// else. This is the natural liveness probe a net actor sends on hearing
// about a new address for the first time.
func BuildPingRequest(selfID [20]byte, version string) (bencode.Value, []byte, error) {
	args := map[string]bencode.Value{
		"id": bencode.Bytes(selfID[:]),
	}
	return BuildRequest(MethodPing, args, version)
}

// Classify dispatches an inbound envelope by its "y" field.
func Classify(msg bencode.Value) (MessageType, error) {
	if msg.Kind() != bencode.KindDict {
		return "", newMessageError("message is not a dict")
	}

	y, ok := msg.Get("y")
	if !ok {
		return "", newMessageError("message missing \"y\" key")
	}
	yb, ok := y.AsBytes()
	if !ok {
		return "", newMessageError("\"y\" is not a bytestring")
	}

	switch MessageType(yb) {
	case TypeQuery, TypeResponse, TypeError:
		return MessageType(yb), nil
	default:
		return "", newMessageError(fmt.Sprintf("unhandled message type %q", yb))
	}
}

// TransactionID extracts the "t" field common to every envelope shape.
func TransactionID(msg bencode.Value) ([]byte, error) {
	t, ok := msg.Get("t")
	if !ok {
		return nil, newMessageError("message missing \"t\" key")
	}
	tb, ok := t.AsBytes()
	if !ok {
		return nil, newMessageError("\"t\" is not a bytestring")
	}
	return tb, nil
}

// ClientVersion extracts the optional "v" field, if present.
func ClientVersion(msg bencode.Value) (string, bool) {
	v, ok := msg.Get("v")
	if !ok {
		return "", false
	}
	vb, ok := v.AsBytes()
	if !ok {
		return "", false
	}
	return string(vb), true
}
