package serializer

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/common"
	"github.com/klauspost/compress/zstd"
)

// NewCompressedSerializer wraps inner so that every serialized message is zstd compressed.
// Both sides of a connection must use the same wrapping.
func NewCompressedSerializer(inner IRPCSerializer) (IRPCSerializer, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &compressedSerializerImpl{inner: inner, enc: enc, dec: dec}, nil
}

// compressedSerializerImpl implements the IRPCSerializer interface on top of another serializer.
// EncodeAll and DecodeAll are safe for concurrent use.
type compressedSerializerImpl struct {
	inner IRPCSerializer
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (c *compressedSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	raw, err := c.inner.Serialize(msg)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

func (c *compressedSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	raw, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress message: %w", err)
	}
	return c.inner.Deserialize(raw, msg)
}
