// Package common provides the data structures shared by the RPC driver packages:
// the message protocol, the driver configuration and the logger factory.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Error responses carry
//     the store.RetCode of the failure next to its text, so the client can rebuild a
//     typed *store.Error (see Message.AsError) and the guard can recognise timeouts
//     that happened on the server side.
//
//   - ClientConfig: Configuration of the driver (transport, serializer, timeout, socket
//     options). Its mapstructure tags define the passthrough keys accepted by the guard.
//
//   - Logger: Custom implementation of dragonboat's logger.ILogger producing
//     "LEVEL | package | message" lines. InitLoggers installs it and sets the level of
//     every kvguard logger.
package common
