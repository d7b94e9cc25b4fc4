package server

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
)

// NewIStoreServerAdapter returns the adapter for the store.IStore operations
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse(store.NewError(store.RetCInternalError, "handler: store is nil"))
	}

	switch req.MsgType {
	case common.MsgTKVSet:
		return common.NewResponse(req.MsgType, nil, false, s.Set(req.Key, req.Value))
	case common.MsgTKVSetE:
		return common.NewResponse(req.MsgType, nil, false, s.SetE(req.Key, req.Value, req.ExpireIn, req.DeleteIn))
	case common.MsgTKVSetEIfUnset:
		return common.NewResponse(req.MsgType, nil, false, s.SetEIfUnset(req.Key, req.Value, req.ExpireIn, req.DeleteIn))
	case common.MsgTKVExpire:
		return common.NewResponse(req.MsgType, nil, false, s.Expire(req.Key))
	case common.MsgTKVDelete:
		return common.NewResponse(req.MsgType, nil, false, s.Delete(req.Key))
	case common.MsgTKVGet:
		val, ok, err := s.Get(req.Key)
		return common.NewResponse(req.MsgType, val, ok, err)
	case common.MsgTKVHas:
		ok, err := s.Has(req.Key)
		return common.NewResponse(req.MsgType, nil, ok, err)
	default:
		return common.NewErrorResponse(store.NewError(store.RetCUnsupportedOperation,
			fmt.Sprintf("unsupported message type: %s", req.MsgType)))
	}
}
