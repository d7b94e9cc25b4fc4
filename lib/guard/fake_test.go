package guard

import (
	"context"
	"errors"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/client"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeStore is an in-memory client.IRemoteStore whose connection events are driven by the test
type fakeStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	handlers []transport.EventHandler

	connected atomic.Bool
	closed    atomic.Int32
}

func newFakeStore() *fakeStore {
	s := &fakeStore{data: make(map[string][]byte)}
	s.connected.Store(true)
	return s
}

// emit delivers an event to the registered handlers like a transport would
func (s *fakeStore) emit(event transport.Event) {
	s.mu.Lock()
	handlers := append([]transport.EventHandler(nil), s.handlers...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(event)
	}
}

// disconnect simulates the loss of all connections
func (s *fakeStore) disconnect(cause error) {
	s.connected.Store(false)
	s.emit(transport.Event{Type: transport.EventDisconnected, Endpoint: "fake", Err: cause})
}

func (s *fakeStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *fakeStore) SetE(key string, value []byte, _, _ uint64) error {
	return s.Set(key, value)
}

func (s *fakeStore) SetEIfUnset(key string, value []byte, _, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		s.data[key] = value
	}
	return nil
}

func (s *fakeStore) Expire(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = nil
	return nil
}

func (s *fakeStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *fakeStore) Has(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

func (s *fakeStore) OnEvent(handler transport.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

func (s *fakeStore) IsConnected() bool {
	return s.connected.Load()
}

func (s *fakeStore) Close() error {
	s.closed.Add(1)
	s.connected.Store(false)
	return nil
}

// fakeDialer hands out fake stores and counts the dials
type fakeDialer struct {
	mu     sync.Mutex
	stores []*fakeStore
	err    error
}

func (d *fakeDialer) dial(_ common.ClientConfig) (client.IRemoteStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeStore()
	d.stores = append(d.stores, s)
	return s, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.stores)
}

func (d *fakeDialer) last() *fakeStore {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.stores) == 0 {
		return nil
	}
	return d.stores[len(d.stores)-1]
}

// fakeClock advances on Sleep instead of waiting and records the requested delays
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

// errTimeout is a driver timeout as produced by the transports
var errTimeout = store.NewError(store.RetCTimeout, "request timed out after 5s")

// newTestGuard creates a connected guard backed by a fake dialer and a fake clock
func newTestGuard(t *testing.T, cfg Config) (*Guard, *fakeDialer, *fakeClock) {
	t.Helper()

	dialer := &fakeDialer{}
	clock := newFakeClock()
	g, err := New(cfg, WithDialer(dialer.dial), WithClock(clock), WithName(t.Name()))
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	if !g.Connect() {
		t.Fatalf("Failed to connect guard: %v", g.LastError())
	}
	t.Cleanup(func() { _ = g.Close() })
	return g, dialer, clock
}

// failing returns an op that fails with err for the first n attempts and then returns value
func failing[T any](n int, err error, value T) (op func(client.IRemoteStore) (T, error), calls *atomic.Int32) {
	calls = &atomic.Int32{}
	op = func(client.IRemoteStore) (T, error) {
		if int(calls.Add(1)) <= n {
			var zero T
			return zero, err
		}
		return value, nil
	}
	return op, calls
}

var errConflict = errors.New("conflict")
