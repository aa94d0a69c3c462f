package netactor

import "github.com/mjolnir-labs/burrow/internal/dht"

// Command is sent down the UI -> Net channel. The net actor is the sole
// owner of the routing table and socket; a CLI or any other UI surface
// never touches them directly.
type Command interface{ isCommand() }

// Bootstrap asks the actor to ping a well-known address and then issue a
// find_node for our own id to it to seed the table. The find_node is sent
// as soon as the ping has been written; it does not wait for the ping's
// reply.
type Bootstrap struct {
	Addr string
}

// FindNode asks the actor to send a find_node query for target to every
// contact currently in the closest-k set, merging replies back into the
// routing table as they arrive.
type FindNode struct {
	Target dht.NodeId
}

func (Bootstrap) isCommand() {}
func (FindNode) isCommand()  {}

// Display is sent down the Net -> UI channel. It is the actor's only
// means of surfacing state to a shell; nothing reads the routing table
// from outside the actor's own goroutine.
type Display interface{ isDisplay() }

type Info struct{ Text string }

type Warning struct{ Text string }

type NodeDiscovered struct {
	Node dht.NodeContactInfo
}

type BootstrapComplete struct {
	TableSize int
}

func (Info) isDisplay()              {}
func (Warning) isDisplay()           {}
func (NodeDiscovered) isDisplay()    {}
func (BootstrapComplete) isDisplay() {}
