// Package base implements the framed, multiplexed socket client shared by the tcp and
// unix transports. Protocol specific dialing and socket options are supplied through
// an IClientConnector.
//
// Frames:
//
//	8 bytes shardID | 8 bytes requestID | 4 bytes length | payload
//
// Every request gets a unique requestID; a reader goroutine per connection routes
// response frames back to the waiting Send call through an xsync.MapOf of channels,
// so many requests can be in flight on one connection.
//
// Failure handling:
//
//   - A request that does not get an answer within the configured timeout fails with a
//     store.RetCTimeout error. Its late answer is dropped.
//
//   - A broken connection is taken out of the round robin rotation, its pending requests
//     fail with store.RetCConnection and an EventConnectionLost is emitted. Once no
//     connection is left, EventDisconnected follows. Connections are never re-dialed here;
//     the owner decides whether to call Connect again.
//
//   - Send performs exactly one attempt. Retrying belongs to the layer above.
package base
