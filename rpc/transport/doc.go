// Package transport defines the client transport contract of the RPC driver and
// the connection events transports emit.
//
// Key Components:
//
//   - IRPCClientTransport: connection management and request sending. A transport makes
//     one attempt per Send and reports an exceeded request deadline as a store.RetCTimeout
//     error, which is what the guard retries on.
//
//   - Event / EventHandler: notifications about connections being established, lost or
//     closed. Handlers run synchronously on the goroutine that observed the change.
//
// Implementations live in the tcp, unix (both built on base) and http subpackages.
package transport
