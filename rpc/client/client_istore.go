package client

import (
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/serializer"
	"github.com/ValentinKolb/kvguard/rpc/transport"
)

// IRemoteStore is a store.IStore backed by a transport connection.
// Besides the store operations it exposes the connection's events and lifecycle.
type IRemoteStore interface {
	store.IStore
	// OnEvent registers a handler for connection events of the underlying transport
	OnEvent(handler transport.EventHandler)
	// IsConnected reports whether the underlying transport has a usable connection
	IsConnected() bool
	// Close closes the underlying transport
	Close() error
}

// NewRPCStore creates a new RPC store
// The function takes a util, a transport and a serializer as parameters
// It connects the transport and returns the ready to use store
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IRemoteStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	s := rpcStore{
		shardId:    config.ShardID,
		config:     config,
		transport:  transport,
		serializer: serializer,
	}

	return &s, nil
}

// rpcStore stores all data needed to talk to one shard of a remote store
type rpcStore struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	_, err = i.invoke(common.NewSetRequest(key, value))
	return err
}

func (i *rpcStore) SetE(key string, value []byte, expireIn, deleteIn uint64) (err error) {
	_, err = i.invoke(common.NewSetERequest(key, value, expireIn, deleteIn))
	return err
}

func (i *rpcStore) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) (err error) {
	_, err = i.invoke(common.NewSetEIfUnsetRequest(key, value, expireIn, deleteIn))
	return err
}

func (i *rpcStore) Expire(key string) (err error) {
	_, err = i.invoke(common.NewExpireRequest(key))
	return err
}

func (i *rpcStore) Delete(key string) (err error) {
	_, err = i.invoke(common.NewDeleteRequest(key))
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invoke(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Has(key string) (loaded bool, err error) {
	resp, err := i.invoke(common.NewHasRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) OnEvent(handler transport.EventHandler) {
	i.transport.OnEvent(handler)
}

func (i *rpcStore) IsConnected() bool {
	return i.transport.IsConnected()
}

func (i *rpcStore) Close() error {
	return i.transport.Close()
}
