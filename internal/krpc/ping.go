package krpc

import (
	"github.com/mjolnir-labs/burrow/internal/bencode"
	"github.com/mjolnir-labs/burrow/internal/dht"
)

// PingResponse is the parsed payload of a ping response: just the
// responder's own id.
type PingResponse struct {
	TransactionID []byte
	ResponderID   dht.NodeId
}

func ParsePingResponse(msg bencode.Value) (PingResponse, error) {
	t, err := TransactionID(msg)
	if err != nil {
		return PingResponse{}, err
	}

	r, ok := msg.Get("r")
	if !ok || r.Kind() != bencode.KindDict {
		return PingResponse{}, newMessageError("missing or invalid \"r\" dict")
	}

	idVal, ok := r.Get("id")
	if !ok {
		return PingResponse{}, newMessageError("\"r\" missing \"id\"")
	}
	idBytes, ok := idVal.AsBytes()
	if !ok {
		return PingResponse{}, newMessageError("\"r.id\" is not a bytestring")
	}
	id, err := dht.ParseNodeId(idBytes)
	if err != nil {
		return PingResponse{}, newMessageError(err.Error())
	}

	return PingResponse{TransactionID: t, ResponderID: id}, nil
}

// BuildPingResponse builds the response envelope a net actor sends back
// after classifying an inbound ping query.
func BuildPingResponse(transactionID []byte, selfID dht.NodeId) bencode.Value {
	return bencode.Dict(map[string]bencode.Value{
		"t": bencode.Bytes(transactionID),
		"y": bencode.String(string(TypeResponse)),
		"r": bencode.Dict(map[string]bencode.Value{
			"id": bencode.Bytes(selfID[:]),
		}),
	})
}

// BuildFindNodeResponse builds the response envelope a net actor sends
// back after handling an inbound find_node query, packing nodes as
// BEP-5's 26-byte compact node-info records.
func BuildFindNodeResponse(transactionID []byte, selfID dht.NodeId, nodes []dht.NodeContactInfo) bencode.Value {
	buf := make([]byte, 0, len(nodes)*26)
	for _, n := range nodes {
		// Non-IPv4 contacts can't be packed into the compact format; skip
		// rather than fail the whole response.
		if compact, err := n.CompactNodeInfo(); err == nil {
			buf = append(buf, compact...)
		}
	}

	return bencode.Dict(map[string]bencode.Value{
		"t": bencode.Bytes(transactionID),
		"y": bencode.String(string(TypeResponse)),
		"r": bencode.Dict(map[string]bencode.Value{
			"id":    bencode.Bytes(selfID[:]),
			"nodes": bencode.Bytes(buf),
		}),
	})
}
