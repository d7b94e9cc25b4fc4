package server

import (
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/ValentinKolb/kvguard/rpc/serializer"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc/server")

// shard is a store together with the adapter handling its requests
type shard struct {
	store   store.IStore
	adapter IRPCServerAdapter
}

// Handler decodes request frames, routes them to the shard's store and encodes the response.
// It is the server side counterpart of the rpc client and is safe for concurrent use.
type Handler struct {
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, shard]
}

// NewHandler creates a handler without shards
func NewHandler(s serializer.IRPCSerializer) *Handler {
	return &Handler{
		serializer: s,
		shards:     xsync.NewMapOf[uint64, shard](),
	}
}

// AddShard serves s under the given shard ID
func (h *Handler) AddShard(shardID uint64, s store.IStore) {
	h.shards.Store(shardID, shard{store: s, adapter: NewIStoreServerAdapter()})
}

// Handle answers a serialized request for a shard with a serialized response
func (h *Handler) Handle(shardID uint64, req []byte) []byte {
	var resp *common.Message

	if sh, ok := h.shards.Load(shardID); !ok {
		resp = common.NewErrorResponse(store.NewError(store.RetCInvalidOperation, "shard not found"))
	} else {
		var msg common.Message
		if err := h.serializer.Deserialize(req, &msg); err != nil {
			resp = common.NewErrorResponse(store.WrapError(store.RetCInvalidOperation, "failed to deserialize request", err))
		} else {
			resp = sh.adapter.Handle(&msg, sh.store)
		}
	}

	val, err := h.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("Failed to serialize response: %v", err)
		val, _ = h.serializer.Serialize(*common.NewErrorResponse(
			store.WrapError(store.RetCInternalError, "failed to serialize response", err)))
	}
	return val
}
