package guard

import (
	"context"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/client"
)

// guardedStore routes every store.IStore call through Execute
type guardedStore struct {
	ctx  context.Context
	g    *Guard
	opts []CallOption
}

// Store returns a store.IStore whose operations run under the guard's permits and retry
// policy. All calls use ctx; opts override the retry policy of every call.
func (g *Guard) Store(ctx context.Context, opts ...CallOption) store.IStore {
	return &guardedStore{ctx: ctx, g: g, opts: opts}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (s *guardedStore) Set(key string, value []byte) error {
	return s.g.Do(s.ctx, func(h client.IRemoteStore) error {
		return h.Set(key, value)
	}, s.opts...)
}

func (s *guardedStore) SetE(key string, value []byte, expireIn, deleteIn uint64) error {
	return s.g.Do(s.ctx, func(h client.IRemoteStore) error {
		return h.SetE(key, value, expireIn, deleteIn)
	}, s.opts...)
}

func (s *guardedStore) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) error {
	return s.g.Do(s.ctx, func(h client.IRemoteStore) error {
		return h.SetEIfUnset(key, value, expireIn, deleteIn)
	}, s.opts...)
}

func (s *guardedStore) Expire(key string) error {
	return s.g.Do(s.ctx, func(h client.IRemoteStore) error {
		return h.Expire(key)
	}, s.opts...)
}

func (s *guardedStore) Delete(key string) error {
	return s.g.Do(s.ctx, func(h client.IRemoteStore) error {
		return h.Delete(key)
	}, s.opts...)
}

// getResult bundles the two results of Get for Execute
type getResult struct {
	value  []byte
	loaded bool
}

func (s *guardedStore) Get(key string) ([]byte, bool, error) {
	res, err := Execute(s.ctx, s.g, func(h client.IRemoteStore) (getResult, error) {
		value, loaded, err := h.Get(key)
		return getResult{value, loaded}, err
	}, s.opts...)
	return res.value, res.loaded, err
}

func (s *guardedStore) Has(key string) (bool, error) {
	return Execute(s.ctx, s.g, func(h client.IRemoteStore) (bool, error) {
		return h.Has(key)
	}, s.opts...)
}
