// Package unix provides the Unix domain socket connector for the base transport,
// meant for a store running on the same machine. The endpoint is the socket path.
package unix
