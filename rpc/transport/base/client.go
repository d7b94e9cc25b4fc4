package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single net connection
type clientConnection struct {
	conn         net.Conn
	endpoint     string
	alive        atomic.Bool
	requestChans *xsync.MapOf[uint64, chan responseResult]
	writeMu      sync.Mutex // Serializes frame writes
	parent       *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	timeout       time.Duration
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64 // Unique request IDs
	stopping      atomic.Bool   // Signals shutdown
	disconnected  atomic.Bool   // EventDisconnected was emitted for the current connections
	readers       sync.WaitGroup

	handlersMu sync.RWMutex
	handlers   []transport.EventHandler
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.config = config
	t.timeout = time.Duration(config.TimeoutSecond) * time.Second
	t.stopping.Store(false)
	t.disconnected.Store(false)

	// Set default value for ConnectionsPerEndpoint
	connectionsPerEP := max(1, config.ConnectionsPerEndpoint)

	connections := make([]*clientConnection, 0, len(config.Endpoints)*connectionsPerEP)
	var lastErr error

	for _, endpoint := range config.Endpoints {
		// Create multiple connections per endpoint
		for i := 0; i < connectionsPerEP; i++ {
			clientConn, err := t.dial(endpoint)
			if err != nil {
				lastErr = err
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			connections = append(connections, clientConn)
			Logger.Debugf("Connected to %s (connection %d/%d)", endpoint, i+1, connectionsPerEP)
		}
	}

	// Check if we have at least one connection
	if len(connections) == 0 {
		return store.WrapError(store.RetCConnection, "failed to connect to any endpoint", lastErr)
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	// Start the response readers only after the connections are published
	for _, c := range connections {
		t.readers.Add(1)
		go c.readResponses()
		t.emit(transport.Event{Type: transport.EventConnected, Endpoint: c.endpoint})
	}

	Logger.Infof("Connected to %d out of %d connections to %d endpoints using %s transport",
		len(connections), len(config.Endpoints)*connectionsPerEP, len(config.Endpoints), t.connector.GetName())

	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) (resp []byte, err error) {
	connection := t.getNextConnection()
	if connection == nil {
		return nil, store.NewError(store.RetCConnection, "no active connections available")
	}

	requestID := t.nextRequestID.Add(1)

	// Create and register the channel for the response
	respCh := make(chan responseResult, 1)
	connection.requestChans.Store(requestID, respCh)
	defer connection.requestChans.Delete(requestID)

	// Lock the connection only for writing
	connection.writeMu.Lock()
	if t.timeout > 0 {
		_ = connection.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	}
	err = writeFrame(connection.conn, shardId, requestID, req)
	connection.writeMu.Unlock()

	if err != nil {
		// a partial frame may be on the wire, the stream is unusable either way
		connection.markDead(err)
		if isTimeout(err) {
			return nil, store.WrapError(store.RetCTimeout, "request write timed out", err)
		}
		return nil, store.WrapError(store.RetCConnection, "failed to write request", err)
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if t.timeout > 0 {
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		return nil, store.NewError(store.RetCTimeout, fmt.Sprintf("request timed out after %s", t.timeout))
	}
}

func (t *clientTransport) OnEvent(handler transport.EventHandler) {
	t.handlersMu.Lock()
	t.handlers = append(t.handlers, handler)
	t.handlersMu.Unlock()
}

func (t *clientTransport) IsConnected() bool {
	if t.stopping.Load() {
		return false
	}
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()
	for _, c := range t.connections {
		if c.alive.Load() {
			return true
		}
	}
	return false
}

func (t *clientTransport) Close() error {
	if t.stopping.Swap(true) {
		return nil
	}
	t.closeConnections()
	t.emit(transport.Event{Type: transport.EventClosed})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dial creates a single upgraded connection to the endpoint
func (t *clientTransport) dial(endpoint string) (*clientConnection, error) {
	conn, err := t.connector.Connect(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", endpoint, err)
	}

	c := &clientConnection{
		conn:         conn,
		endpoint:     endpoint,
		requestChans: xsync.NewMapOf[uint64, chan responseResult](),
		parent:       t,
	}
	c.alive.Store(true)
	return c, nil
}

// getNextConnection selects the next alive connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	n := uint64(len(t.connections))
	if n == 0 || t.stopping.Load() {
		return nil
	}

	start := t.nextConnIndex.Add(1)
	for i := uint64(0); i < n; i++ {
		c := t.connections[(start+i)%n]
		if c.alive.Load() {
			return c
		}
	}
	return nil
}

// closeConnections closes all active connections and waits for their readers
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	for _, c := range t.connections {
		c.alive.Store(false)
		_ = c.conn.Close()
	}
	t.connections = nil
	t.connectionsMu.Unlock()

	t.readers.Wait()
}

// emit delivers an event to all registered handlers
func (t *clientTransport) emit(event transport.Event) {
	t.handlersMu.RLock()
	handlers := make([]transport.EventHandler, len(t.handlers))
	copy(handlers, t.handlers)
	t.handlersMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// readResponses reads responses in a loop and distributes them to waiting requests.
// It returns when the connection breaks; broken connections are not re-dialed.
func (c *clientConnection) readResponses() {
	defer c.parent.readers.Done()

	for {
		shardID, requestID, data, err := readFrame(c.conn, nil)
		if err != nil {
			c.markDead(err)
			return
		}

		respCh, found := c.requestChans.Load(requestID)
		if !found {
			// the request already timed out
			Logger.Debugf("Received response for unknown request ID %d with shard ID %d", requestID, shardID)
			continue
		}
		select {
		case respCh <- responseResult{data, nil}:
		default:
		}
	}
}

// markDead takes the connection out of rotation, fails all pending requests
// and notifies the event handlers
func (c *clientConnection) markDead(cause error) {
	if !c.alive.Swap(false) {
		return
	}
	_ = c.conn.Close()

	failure := store.WrapError(store.RetCConnection, "connection lost", cause)
	c.requestChans.Range(func(_ uint64, ch chan responseResult) bool {
		select {
		case ch <- responseResult{nil, failure}:
		default:
		}
		return true
	})

	t := c.parent
	if t.stopping.Load() {
		return
	}

	Logger.Warningf("Lost connection to %s: %v", c.endpoint, cause)
	t.emit(transport.Event{Type: transport.EventConnectionLost, Endpoint: c.endpoint, Err: cause})
	if !t.IsConnected() && !t.disconnected.Swap(true) {
		t.emit(transport.Event{Type: transport.EventDisconnected, Endpoint: c.endpoint, Err: cause})
	}
}

// isTimeout reports whether err is a network timeout
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
