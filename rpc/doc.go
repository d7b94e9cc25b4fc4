// Package rpc contains the driver kvguard guards: a client for a remote key-value
// store speaking a framed request/response protocol.
//
// The package is organized into several subpackages:
//
//   - common: the Message protocol, the driver configuration and logging.
//
//   - transport: client transport abstraction and connection events, with tcp, unix
//     and http implementations (tcp and unix share the multiplexed client in base).
//
//   - serializer: Message encoding (JSON, GOB, optional zstd compression).
//
//   - client: the IRemoteStore handle and Dial.
//
//   - server: the request handler answering messages from a store.IStore.
//
// The driver makes exactly one attempt per operation. Admission control and retries
// are the job of lib/guard.
package rpc
