package http

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/http")

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	mu         sync.RWMutex
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32

	handlersMu sync.RWMutex
	handlers   []transport.EventHandler
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL, plain host:port endpoints default to http
	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: max(1, config.ConnectionsPerEndpoint),
			IdleConnTimeout:     90 * time.Second,
		},
	}

	t.mu.Lock()
	t.client = client
	t.serverURLs = parsedURLs
	t.mu.Unlock()
	t.counter.Store(0)

	for _, u := range parsedURLs {
		t.emit(transport.Event{Type: transport.EventConnected, Endpoint: u.String()})
	}
	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) (resp []byte, err error) {
	t.mu.RLock()
	client, serverURLs := t.client, t.serverURLs
	t.mu.RUnlock()

	// Check if the transport is initialized
	if client == nil {
		return nil, store.NewError(store.RetCConnection, "http transport not initialized")
	}

	// Select the next server via round-robin
	idx := t.counter.Add(1) % uint32(len(serverURLs))
	requestURL := fmt.Sprintf("%s/%v", serverURLs[idx].String(), shardId)

	httpResponse, err := client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
	if err != nil {
		return nil, classify(err)
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	switch {
	case httpResponse.StatusCode == http.StatusOK:
	case httpResponse.StatusCode == http.StatusGatewayTimeout || httpResponse.StatusCode == http.StatusRequestTimeout:
		return nil, store.NewError(store.RetCTimeout, fmt.Sprintf("http error: %s", httpResponse.Status))
	default:
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("http error: %s", httpResponse.Status))
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, classify(err)
	}
	return body, nil
}

func (t *httpClientTransport) OnEvent(handler transport.EventHandler) {
	t.handlersMu.Lock()
	t.handlers = append(t.handlers, handler)
	t.handlersMu.Unlock()
}

func (t *httpClientTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.client != nil
}

func (t *httpClientTransport) Close() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.serverURLs = nil
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	client.CloseIdleConnections()
	t.emit(transport.Event{Type: transport.EventClosed})
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// emit delivers an event to all registered handlers
func (t *httpClientTransport) emit(event transport.Event) {
	t.handlersMu.RLock()
	handlers := append([]transport.EventHandler(nil), t.handlers...)
	t.handlersMu.RUnlock()
	for _, h := range handlers {
		h(event)
	}
}

// classify maps client errors to store errors, timeouts become RetCTimeout
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return store.WrapError(store.RetCTimeout, "http request timed out", err)
	}
	return store.WrapError(store.RetCConnection, "http request failed", err)
}
