package client

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/lib/store"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// invoke sends a request to the shard and waits for the response.
// Transport errors are returned unchanged (they already carry a store.RetCode),
// error responses are converted to *store.Error with the code sent by the server.
// It also checks that the type of the response matches the request.
func (i *rpcStore) invoke(req *common.Message) (*common.Message, error) {
	reqBytes, err := i.serializer.Serialize(*req)
	if err != nil {
		return nil, store.WrapError(store.RetCInvalidOperation, "failed to serialize request", err)
	}

	respBytes, err := i.transport.Send(i.shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := i.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, store.WrapError(store.RetCInternalError, "failed to deserialize response", err)
	}

	if err := resp.AsError(); err != nil {
		return nil, err
	}

	if resp.MsgType != req.MsgType {
		return nil, store.NewError(store.RetCInternalError,
			fmt.Sprintf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	return resp, nil
}
