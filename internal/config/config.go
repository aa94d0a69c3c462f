// Package config holds the small set of knobs a net actor needs to run:
// its own identity, where it listens, who it bootstraps from, and how
// long it waits for a reply.
package config

import (
	"fmt"
	"time"

	"github.com/mjolnir-labs/burrow/internal/dht"
)

// Config defines behavior and resource limits for a single DHT node.
type Config struct {
	// SelfID is this node's own 160-bit identity. A zero value means the
	// caller wants one generated at startup.
	SelfID dht.NodeId

	// ListenAddr is the local UDP address to bind, e.g. ":6881".
	ListenAddr string

	// BootstrapAddr is a well-known DHT node's host:port used to seed the
	// routing table on first start. Empty disables bootstrapping.
	BootstrapAddr string

	// ClientVersion is the optional "v" field attached to outgoing KRPC
	// queries. Empty omits the field.
	ClientVersion string

	// ResponseTimeout is how long the net actor waits for a reply to an
	// outstanding query before treating the transaction as failed.
	ResponseTimeout time.Duration

	// BootstrapRetries caps how many times a failed bootstrap ping is
	// retried before the actor gives up and starts with an empty table.
	BootstrapRetries int
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":6881",
		ClientVersion:    "BURW",
		ResponseTimeout:  5 * time.Second,
		BootstrapRetries: 3,
	}
}

// Validate checks fields that downstream code is not prepared to handle
// out of range, so a bad config fails fast at startup rather than deep
// inside a query handler.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: ListenAddr must not be empty")
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("config: ResponseTimeout must be positive")
	}
	if c.BootstrapRetries < 0 {
		return fmt.Errorf("config: BootstrapRetries must not be negative")
	}
	return nil
}
