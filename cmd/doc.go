// Package cmd implements the command-line interface of kvguard. Every store
// operation issued from the command line runs through a guard, so it is bounded
// by the permit pool and retried on timeouts like in application code.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, delete, etc.) and a
//     concurrent performance test
//   - util: Shared flags, environment handling and guard construction (internal use)
//
// All flags can also be set as environment variables with the KVGUARD_ prefix
// (e.g. KVGUARD_HOSTS, KVGUARD_RETRY_COUNT), .env and .env.local are loaded on start.
//
// See kvguard -help for a list of all commands.
package cmd
