package client

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/serializer"
	"github.com/ValentinKolb/kvguard/rpc/transport"
	"github.com/ValentinKolb/kvguard/rpc/transport/http"
	"github.com/ValentinKolb/kvguard/rpc/transport/tcp"
	"github.com/ValentinKolb/kvguard/rpc/transport/unix"
)

// NewTransport creates the client transport named in the configuration
func NewTransport(config common.ClientConfig) (transport.IRPCClientTransport, error) {
	switch config.Transport {
	case common.TransportTCP:
		return tcp.NewTCPClientTransport(), nil
	case common.TransportUnix:
		return unix.NewUnixClientTransport(), nil
	case common.TransportHTTP:
		return http.NewHttpClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", config.Transport)
	}
}

// Dial validates the configuration, builds transport and serializer from it and
// returns a connected remote store
func Dial(config common.ClientConfig) (IRemoteStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	t, err := NewTransport(config)
	if err != nil {
		return nil, err
	}

	s, err := serializer.FromConfig(config)
	if err != nil {
		return nil, err
	}

	Logger.Debugf("Dialing %v using %s transport and %s serializer", config.Endpoints, config.Transport, config.Serializer)

	return NewRPCStore(config, t, s)
}
