package serializer

import (
	"fmt"
	"github.com/ValentinKolb/kvguard/rpc/common"
)

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}

// FromConfig creates the serializer named in the driver configuration,
// wrapped with zstd compression if enabled
func FromConfig(config common.ClientConfig) (IRPCSerializer, error) {
	var s IRPCSerializer
	switch config.Serializer {
	case common.SerializerJSON:
		s = NewJSONSerializer()
	case common.SerializerGOB:
		s = NewGOBSerializer()
	default:
		return nil, fmt.Errorf("invalid serializer %s", config.Serializer)
	}

	if config.Compression {
		return NewCompressedSerializer(s)
	}
	return s, nil
}
