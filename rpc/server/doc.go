// Package server holds the server side of the RPC message protocol.
//
// A Handler decodes request frames, routes them by shard ID to a store.IStore and
// encodes the response, including the store.RetCode of failed operations. It has no
// transport of its own: it can be mounted behind any listener that delivers
// (shardID, payload) pairs, e.g. an http.Handler posting to /<shard>.
//
//	h := server.NewHandler(serializer.NewJSONSerializer())
//	h.AddShard(common.DefaultShardID, myStore)
//	resp := h.Handle(common.DefaultShardID, reqBytes)
package server
