// Package guard bounds and retries the operations an application issues against a remote
// key-value store.
//
// A Guard owns one driver handle (see rpc/client) and admits every operation through a
// counting permit pool, so that no more than
//
//	max(MaxConnsPerNode-1, MinConnsPerNode)
//
// operations are in flight at once. Operations that fail because the store did not answer
// in time are retried with an exponential backoff of RetryBackoff^retry milliseconds, up
// to RetryCount times. All other errors are returned to the caller on their first
// occurrence, since retrying a non-idempotent write could apply it twice.
//
// Usage:
//
//	g, err := guard.New(guard.Config{
//		Hosts:       "10.0.0.1:3000,10.0.0.2:3000",
//		Passthrough: map[string]any{"timeout": 2, "transport": "tcp"},
//	})
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	if !g.Connect() {
//		return g.LastError()
//	}
//
//	value, err := guard.Execute(ctx, g, func(h client.IRemoteStore) ([]byte, error) {
//		v, _, err := h.Get("key")
//		return v, err
//	})
//
// The guard never reconnects on its own. Once the driver reports that all connections are
// gone, operations fail with ErrNotConnected until Connect is called again.
package guard
