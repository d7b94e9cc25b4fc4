package transport

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/common"
)

// --------------------------------------------------------------------------
// Connection Events
// --------------------------------------------------------------------------

// EventType classifies a connection event
type EventType uint8

const (
	// EventConnected is emitted once a connection to an endpoint is established
	EventConnected EventType = iota + 1
	// EventConnectionLost is emitted when a single connection breaks while others may still be alive
	EventConnectionLost
	// EventDisconnected is emitted when the transport has no usable connection left
	EventDisconnected
	// EventClosed is emitted when the transport is closed by its owner
	EventClosed
)

// String returns the string representation of an EventType
func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventConnectionLost:
		return "connection lost"
	case EventDisconnected:
		return "disconnected"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event describes a change of the transport's connection state
type Event struct {
	Type     EventType
	Endpoint string
	Err      error
}

// String returns a human-readable description of the event
func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (endpoint=%s, err=%v)", e.Type, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s (endpoint=%s)", e.Type, e.Endpoint)
}

// EventHandler is called synchronously for every event, it must not block
type EventHandler func(Event)

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// A transport performs exactly one attempt per Send; retrying is left to the caller.
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and returns the response.
	// Requests that exceed the configured timeout fail with a store.RetCTimeout error.
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// OnEvent registers a handler for connection events
	OnEvent(handler EventHandler)
	// IsConnected reports whether at least one connection is usable
	IsConnected() bool
	// Close closes the transport connection
	Close() error
}
