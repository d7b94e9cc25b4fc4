package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// Transport names understood by the client
const (
	TransportTCP  = "tcp"
	TransportUnix = "unix"
	TransportHTTP = "http"
)

// Serializer names understood by the client
const (
	SerializerJSON = "json"
	SerializerGOB  = "gob"
)

// DefaultShardID is the shard the client talks to if none is configured
const DefaultShardID uint64 = 100

// SocketConf holds buffer settings for socket based transports
type SocketConf struct {
	WriteBufferSize int `mapstructure:"write-buffer"` // in bytes, 0 keeps the OS default
	ReadBufferSize  int `mapstructure:"read-buffer"`  // in bytes, 0 keeps the OS default
}

// TCPConf holds settings only used by the tcp transport
type TCPConf struct {
	TCPNoDelay      bool `mapstructure:"tcp-nodelay"`
	TCPKeepAliveSec int  `mapstructure:"tcp-keepalive"`
	TCPLingerSec    int  `mapstructure:"tcp-linger"`
}

// ClientConfig is the configuration of the RPC driver. The guard fills Endpoints
// and ConnectionsPerEndpoint from its own config, all other fields come from the
// passthrough map (the mapstructure tags are the passthrough keys).
type ClientConfig struct {
	Endpoints              []string `mapstructure:"-"`
	ConnectionsPerEndpoint int      `mapstructure:"-"`

	TimeoutSecond int    `mapstructure:"timeout"`
	Transport     string `mapstructure:"transport"`
	Serializer    string `mapstructure:"serializer"`
	Compression   bool   `mapstructure:"compression"`
	ShardID       uint64 `mapstructure:"shard"`

	SocketConf `mapstructure:",squash"`
	TCPConf    `mapstructure:",squash"`
}

// DefaultClientConfig returns the driver defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoints:              []string{"localhost:3000"},
		ConnectionsPerEndpoint: 1,
		TimeoutSecond:          5,
		Transport:              TransportTCP,
		Serializer:             SerializerJSON,
		ShardID:                DefaultShardID,
		TCPConf: TCPConf{
			TCPNoDelay: true,
		},
	}
}

// Validate checks the driver configuration
func (c *ClientConfig) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	for _, ep := range c.Endpoints {
		if strings.TrimSpace(ep) == "" {
			return fmt.Errorf("empty endpoint in %v", c.Endpoints)
		}
	}
	switch c.Transport {
	case TransportTCP, TransportUnix, TransportHTTP:
	default:
		return fmt.Errorf("invalid transport %q (expected one of: tcp, unix, http)", c.Transport)
	}
	switch c.Serializer {
	case SerializerJSON, SerializerGOB:
	default:
		return fmt.Errorf("invalid serializer %q (expected one of: json, gob)", c.Serializer)
	}
	if c.TimeoutSecond < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.TimeoutSecond)
	}
	if c.ConnectionsPerEndpoint < 0 {
		return fmt.Errorf("connections per endpoint must not be negative, got %d", c.ConnectionsPerEndpoint)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-26s: %s\n", name, value))
	}

	addSection("Driver Configuration")
	addField("Transport", c.Transport)
	addField("Serializer", c.Serializer)
	addField("Compression", strconv.FormatBool(c.Compression))
	addField("Shard", strconv.FormatUint(c.ShardID, 10))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Connections Per Endpoint", strconv.Itoa(max(1, c.ConnectionsPerEndpoint)))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
