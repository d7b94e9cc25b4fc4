// Package http implements the client transport over plain HTTP: every request is a
// POST of the serialized message to <endpoint>/<shardID>, endpoints are used round robin.
//
// Errors are mapped onto store codes so the guard can classify them:
//
//   - client timeout, 408 and 504 responses     -> store.RetCTimeout
//   - dial or read failures                     -> store.RetCConnection
//   - any other non-200 status                  -> store.RetCInternalError
//
// HTTP has no persistent connection to observe, so the transport only emits
// EventConnected on Connect and EventClosed on Close.
package http
