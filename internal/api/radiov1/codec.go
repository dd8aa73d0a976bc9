package radiov1

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// CodecName is registered in place of connect's protobuf JSON codec.
const CodecName = "json"

// Codec marshals radiov1 messages with encoding/json.
type Codec struct{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	// An empty body is an empty message.
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.Wrap(err, "failed to decode message")
	}
	return nil
}
