package client

import (
	"errors"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/serializer"
	"github.com/ValentinKolb/kvguard/rpc/server"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// memStore is an in-memory store.IStore
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail map[string]error // keys whose operations fail with the error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte), fail: make(map[string]error)}
}

func (s *memStore) Set(key string, value []byte) error {
	return s.SetE(key, value, 0, 0)
}

func (s *memStore) SetE(key string, value []byte, _, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[key]; err != nil {
		return err
	}
	s.data[key] = value
	return nil
}

func (s *memStore) SetEIfUnset(key string, value []byte, _, _ uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		s.data[key] = value
	}
	return nil
}

func (s *memStore) Expire(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		s.data[key] = nil
	}
	return nil
}

func (s *memStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[key]; err != nil {
		return nil, false, err
	}
	v, ok := s.data[key]
	return v, ok && v != nil, nil
}

func (s *memStore) Has(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[key]; err != nil {
		return false, err
	}
	_, ok := s.data[key]
	return ok, nil
}

// memTransport delivers requests to a server.Handler without a network
type memTransport struct {
	handler    *server.Handler
	serializer serializer.IRPCSerializer
	sendErr    error
	rewrite    func(resp *common.Message)
	closed     bool
}

func (t *memTransport) Connect(common.ClientConfig) error { return nil }

func (t *memTransport) OnEvent(transport.EventHandler) {}

func (t *memTransport) IsConnected() bool { return !t.closed }

func (t *memTransport) Close() error {
	t.closed = true
	return nil
}

func (t *memTransport) Send(shardID uint64, reqBytes []byte) ([]byte, error) {
	if t.sendErr != nil {
		return nil, t.sendErr
	}
	respBytes := t.handler.Handle(shardID, reqBytes)
	if t.rewrite == nil {
		return respBytes, nil
	}
	var resp common.Message
	if err := t.serializer.Deserialize(respBytes, &resp); err != nil {
		return nil, err
	}
	t.rewrite(&resp)
	return t.serializer.Serialize(resp)
}

func newRemoteStore(t *testing.T) (IRemoteStore, *memStore, *memTransport) {
	t.Helper()
	mem := newMemStore()
	s := serializer.NewJSONSerializer()
	h := server.NewHandler(s)
	h.AddShard(common.DefaultShardID, mem)

	tr := &memTransport{handler: h, serializer: s}
	rs, err := NewRPCStore(common.DefaultClientConfig(), tr, s)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return rs, mem, tr
}

func TestRPCStoreOperations(t *testing.T) {
	rs, _, _ := newRemoteStore(t)

	if err := rs.Set("a", []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok, err := rs.Get("a"); err != nil || !ok || string(v) != "1" {
		t.Errorf("Get returned %q, %t, %v", v, ok, err)
	}
	if err := rs.SetEIfUnset("a", []byte("2"), 1, 2); err != nil {
		t.Fatalf("SetEIfUnset failed: %v", err)
	}
	if v, _, _ := rs.Get("a"); string(v) != "1" {
		t.Errorf("SetEIfUnset overwrote value: %q", v)
	}
	if err := rs.Expire("a"); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}
	if has, err := rs.Has("a"); err != nil || !has {
		t.Errorf("Expected expired key to exist, got %t, %v", has, err)
	}
	if err := rs.SetE("b", []byte("x"), 10, 20); err != nil {
		t.Fatalf("SetE failed: %v", err)
	}
	if err := rs.Delete("b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if has, _ := rs.Has("b"); has {
		t.Errorf("Expected deleted key to be gone")
	}
	if _, ok, err := rs.Get("missing"); err != nil || ok {
		t.Errorf("Expected missing key not to be loaded, got %t, %v", ok, err)
	}
}

func TestRPCStoreErrors(t *testing.T) {
	t.Run("server error keeps its code", func(t *testing.T) {
		for _, code := range []store.RetCode{store.RetCTimeout, store.RetCInvalidOperation, store.RetCInternalError} {
			rs, mem, _ := newRemoteStore(t)
			mem.fail["k"] = store.NewError(code, "failed on server")

			_, _, err := rs.Get("k")
			if store.CodeOf(err) != code {
				t.Errorf("Expected code %s, got %v", code, err)
			}
			if !strings.Contains(err.Error(), "failed on server") {
				t.Errorf("Expected server message in %v", err)
			}
		}
	})

	t.Run("transport error is returned unchanged", func(t *testing.T) {
		rs, _, tr := newRemoteStore(t)
		tr.sendErr = store.NewError(store.RetCTimeout, "request timed out")

		err := rs.Set("k", nil)
		if !errors.Is(err, tr.sendErr) {
			t.Errorf("Expected the transport error, got %v", err)
		}
	})

	t.Run("mismatched response type", func(t *testing.T) {
		rs, _, tr := newRemoteStore(t)
		tr.rewrite = func(resp *common.Message) { resp.MsgType = common.MsgTKVHas }

		err := rs.Set("k", nil)
		if store.CodeOf(err) != store.RetCInternalError {
			t.Errorf("Expected an internal error, got %v", err)
		}
	})

	t.Run("error without code", func(t *testing.T) {
		rs, _, tr := newRemoteStore(t)
		tr.rewrite = func(resp *common.Message) { resp.Err = "something broke" }

		err := rs.Delete("k")
		if store.CodeOf(err) != store.RetCInternalError {
			t.Errorf("Expected an internal error, got %v", err)
		}
	})
}

func TestRPCStoreLifecycle(t *testing.T) {
	rs, _, tr := newRemoteStore(t)
	if !rs.IsConnected() {
		t.Errorf("Expected store to be connected")
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !tr.closed || rs.IsConnected() {
		t.Errorf("Expected Close to close the transport")
	}
}

func TestDialHTTP(t *testing.T) {
	mem := newMemStore()
	mem.fail["slow"] = store.NewError(store.RetCTimeout, "deadline exceeded on server")
	h := server.NewHandler(serializer.NewJSONSerializer())
	h.AddShard(7, mem)

	var shardPaths sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shardPaths.Store(r.URL.Path, true)
		shardID, err := strconv.ParseUint(strings.TrimPrefix(r.URL.Path, "/"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write(h.Handle(shardID, body))
	}))
	defer srv.Close()

	config := common.DefaultClientConfig()
	config.Endpoints = []string{srv.URL}
	config.Transport = common.TransportHTTP
	config.ShardID = 7

	rs, err := Dial(config)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer rs.Close()

	if err := rs.Set("key", []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok, err := rs.Get("key"); err != nil || !ok || string(v) != "value" {
		t.Errorf("Get returned %q, %t, %v", v, ok, err)
	}
	if _, ok := shardPaths.Load("/7"); !ok {
		t.Errorf("Expected requests to be posted to the shard path")
	}

	if _, err := rs.Has("slow"); store.CodeOf(err) != store.RetCTimeout {
		t.Errorf("Expected the server's timeout code, got %v", err)
	}
}

func TestDialInvalidConfig(t *testing.T) {
	config := common.DefaultClientConfig()
	config.Transport = "smoke-signals"
	if _, err := Dial(config); err == nil {
		t.Errorf("Expected an error for an invalid transport")
	}

	config = common.DefaultClientConfig()
	config.Endpoints = nil
	if _, err := Dial(config); err == nil {
		t.Errorf("Expected an error without endpoints")
	}
}
