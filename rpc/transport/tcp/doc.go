// Package tcp provides the TCP connector for the base transport. Socket options
// (TCP_NODELAY, keepalive, linger, buffer sizes) are taken from common.ClientConfig.
package tcp
