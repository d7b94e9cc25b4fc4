package base

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"github.com/fortytw2/leaktest"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testConnector dials plain tcp connections
type testConnector struct{}

func (testConnector) Connect(endpoint string) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, time.Second)
}

func (testConnector) GetName() string { return "test" }

func (testConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// frameHandler answers a request frame. The connection is closed if keepOpen is false.
type frameHandler func(shardID uint64, data []byte) (resp []byte, reply bool, keepOpen bool)

// frameServer is a minimal framed server for the client transport
type frameServer struct {
	ln      net.Listener
	handler frameHandler
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns []net.Conn
}

func newFrameServer(t *testing.T, handler frameHandler) *frameServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	s := &frameServer{ln: ln, handler: handler}
	s.wg.Add(1)
	go s.serve()
	return s
}

func (s *frameServer) addr() string { return s.ln.Addr().String() }

func (s *frameServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *frameServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		shardID, requestID, data, err := readFrame(conn, nil)
		if err != nil {
			return
		}
		resp, reply, keepOpen := s.handler(shardID, data)
		if !keepOpen {
			return
		}
		if reply {
			writeMu.Lock()
			err = writeFrame(conn, shardID, requestID, resp)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// dropConnections closes all accepted connections
func (s *frameServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
}

func (s *frameServer) close() {
	_ = s.ln.Close()
	s.dropConnections()
	s.wg.Wait()
}

// eventRecorder collects transport events
type eventRecorder struct {
	mu     sync.Mutex
	events []transport.Event
	notify chan transport.EventType
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{notify: make(chan transport.EventType, 64)}
}

func (r *eventRecorder) handle(e transport.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.notify <- e.Type
}

func (r *eventRecorder) count(typ transport.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) waitFor(t *testing.T, typ transport.EventType) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-r.notify:
			if got == typ {
				return
			}
		case <-timeout:
			t.Fatalf("Timed out waiting for event %s", typ)
		}
	}
}

func echo(_ uint64, data []byte) ([]byte, bool, bool) {
	return append([]byte("echo:"), data...), true, true
}

func connectTransport(t *testing.T, endpoints []string, connsPerEndpoint int) (*clientTransport, *eventRecorder) {
	t.Helper()
	tr := NewBaseClientTransport(testConnector{}).(*clientTransport)
	rec := newEventRecorder()
	tr.OnEvent(rec.handle)

	config := common.DefaultClientConfig()
	config.Endpoints = endpoints
	config.ConnectionsPerEndpoint = connsPerEndpoint
	config.TimeoutSecond = 2
	if err := tr.Connect(config); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return tr, rec
}

func TestClientRoundTrip(t *testing.T) {
	defer leaktest.Check(t)()

	server := newFrameServer(t, echo)
	defer server.close()

	tr, rec := connectTransport(t, []string{server.addr()}, 3)
	defer tr.Close()

	if rec.count(transport.EventConnected) != 3 {
		t.Errorf("Expected 3 connected events, got %d", rec.count(transport.EventConnected))
	}
	if !tr.IsConnected() {
		t.Fatalf("Expected transport to be connected")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []byte(fmt.Sprintf("request-%d", i))
			resp, err := tr.Send(common.DefaultShardID, req)
			if err != nil {
				t.Errorf("Send %d failed: %v", i, err)
				return
			}
			if want := append([]byte("echo:"), req...); !bytes.Equal(resp, want) {
				t.Errorf("Expected %q, got %q", want, resp)
			}
		}(i)
	}
	wg.Wait()
}

func TestClientTimeout(t *testing.T) {
	defer leaktest.Check(t)()

	server := newFrameServer(t, func(uint64, []byte) ([]byte, bool, bool) {
		return nil, false, true
	})
	defer server.close()

	tr, _ := connectTransport(t, []string{server.addr()}, 1)
	defer tr.Close()
	tr.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := tr.Send(common.DefaultShardID, []byte("hello"))
	if store.CodeOf(err) != store.RetCTimeout {
		t.Fatalf("Expected a timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Timeout took %v", elapsed)
	}
	if !tr.IsConnected() {
		t.Errorf("A timeout must not break the connection")
	}
}

// pipeConnector connects over in-memory pipes. The first request frame seen on any pipe is
// stalled after its header until release is closed, all other frames are echoed.
type pipeConnector struct {
	stalled atomic.Bool
	release chan struct{}
	wg      sync.WaitGroup
}

func (c *pipeConnector) Connect(string) (net.Conn, error) {
	client, server := net.Pipe()
	c.wg.Add(1)
	go c.serve(server)
	return client, nil
}

func (c *pipeConnector) GetName() string { return "pipe" }

func (c *pipeConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

func (c *pipeConnector) serve(conn net.Conn) {
	defer c.wg.Done()
	defer conn.Close()

	for {
		header := make([]byte, frameHeaderSize)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		if c.stalled.CompareAndSwap(false, true) {
			<-c.release
			return
		}
		shardID, requestID, data, err := readFrame(io.MultiReader(bytes.NewReader(header), conn), nil)
		if err != nil {
			return
		}
		if err := writeFrame(conn, shardID, requestID, append([]byte("echo:"), data...)); err != nil {
			return
		}
	}
}

func TestClientWriteTimeoutDropsConnection(t *testing.T) {
	defer leaktest.Check(t)()

	connector := &pipeConnector{release: make(chan struct{})}
	defer connector.wg.Wait()
	defer close(connector.release)

	tr := NewBaseClientTransport(connector).(*clientTransport)
	rec := newEventRecorder()
	tr.OnEvent(rec.handle)

	config := common.DefaultClientConfig()
	config.Endpoints = []string{"pipe"}
	config.ConnectionsPerEndpoint = 2
	config.TimeoutSecond = 1
	if err := tr.Connect(config); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer tr.Close()
	tr.timeout = 100 * time.Millisecond

	// the peer stops reading after the header, so the payload write runs into the deadline
	_, err := tr.Send(common.DefaultShardID, []byte("first"))
	if store.CodeOf(err) != store.RetCTimeout {
		t.Fatalf("Expected a timeout error, got %v", err)
	}
	rec.waitFor(t, transport.EventConnectionLost)

	alive := 0
	tr.connectionsMu.RLock()
	for _, c := range tr.connections {
		if c.alive.Load() {
			alive++
		}
	}
	tr.connectionsMu.RUnlock()
	if alive != 1 {
		t.Errorf("Expected the half written connection to leave the rotation, %d alive", alive)
	}
	if !tr.IsConnected() {
		t.Errorf("Expected the second connection to stay usable")
	}
	if rec.count(transport.EventDisconnected) != 0 {
		t.Errorf("Expected no disconnected event while a connection is alive")
	}

	for i := 0; i < 3; i++ {
		req := []byte(fmt.Sprintf("next-%d", i))
		resp, err := tr.Send(common.DefaultShardID, req)
		if err != nil {
			t.Fatalf("Send %d after the write timeout failed: %v", i, err)
		}
		if want := "echo:" + string(req); string(resp) != want {
			t.Errorf("Expected %q, got %q", want, resp)
		}
	}
}

func TestClientConnectionLost(t *testing.T) {
	defer leaktest.Check(t)()

	server := newFrameServer(t, echo)
	defer server.close()

	tr, rec := connectTransport(t, []string{server.addr()}, 2)
	defer tr.Close()

	if _, err := tr.Send(common.DefaultShardID, []byte("ping")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	server.dropConnections()
	rec.waitFor(t, transport.EventDisconnected)

	deadline := time.Now().Add(2 * time.Second)
	for rec.count(transport.EventConnectionLost) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count(transport.EventConnectionLost) != 2 {
		t.Errorf("Expected 2 connection lost events, got %d", rec.count(transport.EventConnectionLost))
	}
	if rec.count(transport.EventDisconnected) != 1 {
		t.Errorf("Expected 1 disconnected event, got %d", rec.count(transport.EventDisconnected))
	}
	if tr.IsConnected() {
		t.Errorf("Expected transport to be disconnected")
	}
	if _, err := tr.Send(common.DefaultShardID, []byte("ping")); store.CodeOf(err) != store.RetCConnection {
		t.Errorf("Expected a connection error, got %v", err)
	}
}

func TestClientPendingRequestFailsOnLoss(t *testing.T) {
	defer leaktest.Check(t)()

	server := newFrameServer(t, func(uint64, []byte) ([]byte, bool, bool) {
		return nil, false, false
	})
	defer server.close()

	tr, _ := connectTransport(t, []string{server.addr()}, 1)
	defer tr.Close()

	_, err := tr.Send(common.DefaultShardID, []byte("hello"))
	if store.CodeOf(err) != store.RetCConnection {
		t.Errorf("Expected a connection error, got %v", err)
	}
}

func TestClientConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	tr := NewBaseClientTransport(testConnector{})
	config := common.DefaultClientConfig()
	config.Endpoints = []string{addr}
	err = tr.Connect(config)
	if store.CodeOf(err) != store.RetCConnection {
		t.Errorf("Expected a connection error, got %v", err)
	}
	if tr.IsConnected() {
		t.Errorf("Expected transport not to be connected")
	}
}

func TestClientClose(t *testing.T) {
	defer leaktest.Check(t)()

	server := newFrameServer(t, echo)
	defer server.close()

	tr, rec := connectTransport(t, []string{server.addr()}, 2)

	if err := tr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
	if rec.count(transport.EventClosed) != 1 {
		t.Errorf("Expected 1 closed event, got %d", rec.count(transport.EventClosed))
	}
	if rec.count(transport.EventConnectionLost) != 0 || rec.count(transport.EventDisconnected) != 0 {
		t.Errorf("Closing must not report lost connections")
	}
	if tr.IsConnected() {
		t.Errorf("Expected transport to be closed")
	}
	if _, err := tr.Send(common.DefaultShardID, []byte("ping")); store.CodeOf(err) != store.RetCConnection {
		t.Errorf("Expected a connection error, got %v", err)
	}
}

func TestFrames(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		go func() {
			_ = writeFrame(client, 7, 42, []byte("payload"))
		}()
		shardID, requestID, data, err := readFrame(server, nil)
		if err != nil {
			t.Fatalf("readFrame failed: %v", err)
		}
		if shardID != 7 || requestID != 42 || string(data) != "payload" {
			t.Errorf("Unexpected frame: shard %d, request %d, data %q", shardID, requestID, data)
		}
	})

	t.Run("oversized frame", func(t *testing.T) {
		header := []byte{
			0, 0, 0, 0, 0, 0, 0, 1,
			0, 0, 0, 0, 0, 0, 0, 1,
			0xff, 0xff, 0xff, 0xff,
		}
		if _, _, _, err := readFrame(bytes.NewReader(header), nil); err == nil {
			t.Errorf("Expected an error for an oversized frame")
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		header := make([]byte, frameHeaderSize)
		_, _, data, err := readFrame(bytes.NewReader(header), nil)
		if err != nil || len(data) != 0 {
			t.Errorf("Expected empty payload, got %q, %v", data, err)
		}
	})
}
