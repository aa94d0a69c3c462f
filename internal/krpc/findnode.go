package krpc

import (
	"github.com/mjolnir-labs/burrow/internal/bencode"
	"github.com/mjolnir-labs/burrow/internal/dht"
)

// FindNodeResponse is the parsed payload of a find_node response envelope.
type FindNodeResponse struct {
	TransactionID []byte
	ClientVersion string
	ResponderID   dht.NodeId
	Nodes         []dht.NodeContactInfo
}

// ParseFindNodeResponse extracts t, the optional v, the mandatory r.id and
// r.nodes from a response envelope already classified as TypeResponse.
//
// r.nodes is a packed sequence of 26-byte BEP-5 compact node-info records.
// The implementation this package is grounded on parses the field as
// 20-byte ids only and throws the address away — spec.md flags that as a
// defect to fix, not to replicate, so this parses the full compact record.
func ParseFindNodeResponse(msg bencode.Value) (FindNodeResponse, error) {
	t, err := TransactionID(msg)
	if err != nil {
		return FindNodeResponse{}, err
	}
	version, _ := ClientVersion(msg)

	r, ok := msg.Get("r")
	if !ok || r.Kind() != bencode.KindDict {
		return FindNodeResponse{}, newMessageError("missing or invalid \"r\" dict")
	}

	idVal, ok := r.Get("id")
	if !ok {
		return FindNodeResponse{}, newMessageError("\"r\" missing \"id\"")
	}
	idBytes, ok := idVal.AsBytes()
	if !ok {
		return FindNodeResponse{}, newMessageError("\"r.id\" is not a bytestring")
	}
	responderID, err := dht.ParseNodeId(idBytes)
	if err != nil {
		return FindNodeResponse{}, newMessageError(err.Error())
	}

	nodesVal, ok := r.Get("nodes")
	if !ok {
		return FindNodeResponse{}, newMessageError("\"r\" missing \"nodes\"")
	}
	nodesBytes, ok := nodesVal.AsBytes()
	if !ok {
		return FindNodeResponse{}, newMessageError("\"r.nodes\" is not a bytestring")
	}
	nodes, err := dht.DecodeCompactNodeInfoList(nodesBytes)
	if err != nil {
		return FindNodeResponse{}, newMessageError(err.Error())
	}

	return FindNodeResponse{
		TransactionID: t,
		ClientVersion: version,
		ResponderID:   responderID,
		Nodes:         nodes,
	}, nil
}
