// Package store defines the key-value interface that every kvguard handle exposes
// and the error taxonomy shared by the driver and the guard.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations independent of the transport
//   - Typed return codes that let callers tell transient failures from logical ones
//
// Key Components:
//
//   - IStore Interface: The operations a remote store supports (Set, SetE, SetEIfUnset,
//     Expire, Delete, Get, Has). The RPC client in rpc/client implements it and the guard
//     hands it to every operation it executes.
//
//   - Error System: Error carries a RetCode, a message and an optional cause. Codes travel
//     over the wire in error responses and are restored on the client, so a RetCTimeout
//     produced by the server or by the local transport looks the same to the caller.
//     CodeOf extracts the code from any wrapped error chain.
//
// Return codes relevant for retries:
//
//	RetCTimeout     the request did not finish within its time bound (retryable)
//	RetCConnection  the connection is gone (not retried, reconnect explicitly)
package store
