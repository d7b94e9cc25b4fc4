package guard

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/client"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"sync"
)

// State is the lifecycle state of a ConnectionManager
type State int32

const (
	StateUninitialized State = iota // Connect was never called
	StateConnecting                 // a dial is in progress
	StateConnected                  // the handle is live
	StateDisconnected               // the driver reported that all connections are gone
	StateFailed                     // the last dial failed
	StateClosed                     // Close was called, terminal
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DialFunc establishes a driver handle from the driver configuration
type DialFunc func(config common.ClientConfig) (client.IRemoteStore, error)

// ConnectionManager owns the lifecycle of the one driver handle shared by all
// operations of a Guard. It never reconnects on its own: after the driver reports a
// disconnect, operations fail with ErrNotConnected until Connect is called again.
type ConnectionManager struct {
	config common.ClientConfig
	dial   DialFunc

	connectMu sync.Mutex // serializes Connect and Close

	mu         sync.RWMutex // guards the fields below
	state      State
	handle     client.IRemoteStore
	lastErr    error
	generation uint64
}

// NewConnectionManager creates a manager that dials with the given function
func NewConnectionManager(config common.ClientConfig, dial DialFunc) *ConnectionManager {
	if dial == nil {
		dial = client.Dial
	}
	return &ConnectionManager{
		config: config,
		dial:   dial,
	}
}

// Connect establishes the connection unless it is already live. It reports whether
// the manager is connected afterwards and never fails loudly: dial errors are logged
// and kept for LastError. Connecting again after a disconnect replaces the stale handle.
func (m *ConnectionManager) Connect() bool {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return true
	case StateClosed:
		m.mu.Unlock()
		Logger.Warningf("Refusing to connect, the guard is closed")
		return false
	}
	stale := m.handle
	m.handle = nil
	m.state = StateConnecting
	m.generation++
	generation := m.generation
	m.mu.Unlock()

	if stale != nil {
		if err := stale.Close(); err != nil {
			Logger.Debugf("Error while closing stale handle: %v", err)
		}
	}

	handle, err := m.safeDial()
	if err != nil {
		Logger.Warningf("Error while connecting to store %v: %v", m.config.Endpoints, err)
		m.mu.Lock()
		m.state = StateFailed
		m.lastErr = err
		m.mu.Unlock()
		return false
	}

	handle.OnEvent(func(event transport.Event) {
		Logger.Debugf("Store event: %s, IsConnected: %t", event, handle.IsConnected())
	})
	handle.OnEvent(func(event transport.Event) {
		if event.Type == transport.EventDisconnected {
			m.disconnected(generation, event.Err)
		}
	})

	m.mu.Lock()
	m.handle = handle
	m.state = StateConnected
	m.lastErr = nil
	m.mu.Unlock()

	// the connection may have broken before the observers were registered
	if !handle.IsConnected() {
		m.disconnected(generation, fmt.Errorf("connection lost during connect"))
		return false
	}

	Logger.Infof("Store connected (%v)", m.config.Endpoints)
	return true
}

// Client returns the current driver handle, bypassing permits and retries.
// It is nil until the first successful Connect and after Close.
func (m *ConnectionManager) Client() client.IRemoteStore {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handle
}

// State returns the current lifecycle state
func (m *ConnectionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the error that caused the last failed connect or disconnect
func (m *ConnectionManager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Close closes the handle. The manager cannot be connected again afterwards.
func (m *ConnectionManager) Close() error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	handle := m.handle
	m.handle = nil
	m.state = StateClosed
	m.mu.Unlock()

	if handle == nil {
		return nil
	}
	Logger.Infof("Closing store connection")
	return handle.Close()
}

// live returns the handle if the manager is connected, otherwise an error describing why not
func (m *ConnectionManager) live() (client.IRemoteStore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch m.state {
	case StateConnected:
		return m.handle, nil
	case StateClosed:
		return nil, ErrClosed
	default:
		if m.lastErr != nil {
			return nil, fmt.Errorf("%w (state %s): %w", ErrNotConnected, m.state, m.lastErr)
		}
		return nil, fmt.Errorf("%w (state %s)", ErrNotConnected, m.state)
	}
}

// disconnected is the disconnect observer of the handle created in the given generation
func (m *ConnectionManager) disconnected(generation uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if generation != m.generation || m.state != StateConnected {
		return
	}
	Logger.Warningf("Disconnected from store: %v", cause)
	m.state = StateDisconnected
	m.lastErr = cause
}

// safeDial calls the dial function and turns a panic into an error
func (m *ConnectionManager) safeDial() (handle client.IRemoteStore, err error) {
	defer func() {
		if r := recover(); r != nil {
			handle, err = nil, fmt.Errorf("dial panicked: %v", r)
		}
	}()
	handle, err = m.dial(m.config)
	if err == nil && handle == nil {
		err = fmt.Errorf("dial returned no handle")
	}
	return handle, err
}
