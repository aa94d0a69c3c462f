package dht

import (
	"encoding/binary"
	"fmt"
	"net"
)

// compactContactSize is the wire size of a BEP-5 compact node-info record:
// 20-byte id, 4-byte IPv4 address, 2-byte big-endian port. The original
// source this package is grounded on parses only the first 20 bytes and
// throws the address away; that is a defect the spec calls out explicitly
// and this implementation does not replicate it.
const compactContactSize = IDLength + net.IPv4len + 2

// NodeContactInfo is a node id paired with an IPv4 address. Equality is by
// id; the address is expected to be updated in place as a contact's
// reported address changes.
type NodeContactInfo struct {
	ID      NodeId
	Address net.UDPAddr
}

// CompactNodeInfo encodes c as a 26-byte BEP-5 compact node-info record.
// Returns an error if the address is not an IPv4 address (IPv6 contacts
// are out of scope for this implementation).
func (c NodeContactInfo) CompactNodeInfo() ([]byte, error) {
	ip4 := c.Address.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("dht: %s is not an IPv4 address", c.Address.IP)
	}
	if c.Address.Port < 0 || c.Address.Port > 0xFFFF {
		return nil, fmt.Errorf("dht: port %d out of range", c.Address.Port)
	}

	buf := make([]byte, compactContactSize)
	copy(buf[:IDLength], c.ID[:])
	copy(buf[IDLength:IDLength+net.IPv4len], ip4)
	binary.BigEndian.PutUint16(buf[IDLength+net.IPv4len:], uint16(c.Address.Port))

	return buf, nil
}

// DecodeCompactNodeInfo decodes a single 26-byte compact node-info record.
func DecodeCompactNodeInfo(data []byte) (NodeContactInfo, error) {
	if len(data) != compactContactSize {
		return NodeContactInfo{}, fmt.Errorf("dht: compact contact must be %d bytes, got %d", compactContactSize, len(data))
	}

	id, err := ParseNodeId(data[:IDLength])
	if err != nil {
		return NodeContactInfo{}, err
	}

	ip := net.IPv4(data[IDLength], data[IDLength+1], data[IDLength+2], data[IDLength+3])
	port := binary.BigEndian.Uint16(data[IDLength+net.IPv4len:])

	return NodeContactInfo{ID: id, Address: net.UDPAddr{IP: ip, Port: int(port)}}, nil
}

// DecodeCompactNodeInfoList decodes a packed sequence of 26-byte compact
// node-info records. Any trailing partial record is an error: BEP-5
// guarantees the field is a whole multiple of 26 bytes, so a remainder
// indicates a malformed or truncated response.
func DecodeCompactNodeInfoList(data []byte) ([]NodeContactInfo, error) {
	if len(data)%compactContactSize != 0 {
		return nil, fmt.Errorf("dht: compact contact list length %d is not a multiple of %d", len(data), compactContactSize)
	}

	count := len(data) / compactContactSize
	contacts := make([]NodeContactInfo, count)
	for i := 0; i < count; i++ {
		offset := i * compactContactSize
		c, err := DecodeCompactNodeInfo(data[offset : offset+compactContactSize])
		if err != nil {
			return nil, err
		}
		contacts[i] = c
	}

	return contacts, nil
}
