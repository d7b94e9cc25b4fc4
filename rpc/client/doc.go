// Package client implements the RPC driver handle: an IRemoteStore that forwards every
// store.IStore operation to a remote shard through a transport and a serializer.
//
// Key Components:
//
//   - Dial: builds transport and serializer from a common.ClientConfig and connects.
//     This is the connect(config) -> handle capability the guard is built on.
//
//   - NewRPCStore: the same with an explicitly supplied transport and serializer,
//     mostly useful for tests and custom transports.
//
// Errors returned by the store methods are *store.Error values. Failures reported by the
// server keep the server's RetCode; transport failures carry RetCTimeout or
// RetCConnection. The driver never retries on its own.
//
// Usage Example:
//
//	config := common.DefaultClientConfig()
//	config.Endpoints = []string{"localhost:3000"}
//
//	s, err := client.Dial(config)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_ = s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
