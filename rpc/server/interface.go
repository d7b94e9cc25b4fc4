package server

import (
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
)

// IRPCServerAdapter translates request messages into calls on a store.
// Errors of the store are set in the response, Handle itself never fails.
type IRPCServerAdapter interface {
	// Handle handles a request against s and returns the response
	Handle(req *common.Message, s store.IStore) (resp *common.Message)
}
