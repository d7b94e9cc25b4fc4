// Package serializer converts common.Message values to bytes and back for the RPC
// driver.
//
// Implementations:
//
//   - JSON (NewJSONSerializer): json-iterator configured for encoding/json compatibility.
//     Human readable, the default.
//
//   - GOB (NewGOBSerializer): Go's gob encoding, one self-describing payload per message.
//
//   - Compressed (NewCompressedSerializer): wraps any serializer with zstd. Worth it for
//     large values, pure overhead for small ones.
//
// FromConfig builds the serializer selected by a common.ClientConfig.
//
// All implementations are safe for concurrent use.
package serializer
