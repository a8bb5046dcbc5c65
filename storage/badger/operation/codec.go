package operation

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack"

	"github.com/sharely/questkit/model/quest"
)

// encodeEntity serializes entity with msgpack and stores it as a snappy block.
func encodeEntity(entity interface{}) ([]byte, error) {
	raw, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("could not encode entity: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// decodeValue reverses encodeEntity. A value that is not a snappy block is
// reported as an integrity error.
func decodeValue(val []byte, entity interface{}) error {
	raw, err := snappy.Decode(nil, val)
	if err != nil {
		return fmt.Errorf("stored value is not a snappy block (%v): %w", err, quest.ErrIntegrity)
	}
	err = msgpack.Unmarshal(raw, entity)
	if err != nil {
		return fmt.Errorf("could not decode entity: %w", err)
	}
	return nil
}
