package worker

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Frame tags. A runner sends TagRequest with no payload as its ready
// signal; a manager sends TagResponse with no payload to dispose a port.
const (
	TagRequest  uint8 = 0
	TagResponse uint8 = 1
)

// Frame is the unit exchanged over a Port: [tag] or [tag, payload].
type Frame struct {
	_       struct{} `cbor:",toarray"`
	Tag     uint8
	Payload cbor.RawMessage
}

// ReadyFrame is sent by a runner once it listens on a port.
func ReadyFrame() Frame { return Frame{Tag: TagRequest} }

// RequestFrame carries a request to a runner.
func RequestFrame(payload []byte) Frame { return Frame{Tag: TagRequest, Payload: payload} }

// ResponseFrame carries a response or event from a runner.
func ResponseFrame(payload []byte) Frame { return Frame{Tag: TagResponse, Payload: payload} }

// DisposeFrame asks a runner to close the port it arrives on.
func DisposeFrame() Frame { return Frame{Tag: TagResponse} }

// HasPayload reports whether the frame carries a payload. An encoded CBOR
// null counts as no payload.
func (f Frame) HasPayload() bool {
	return len(f.Payload) > 0 && !(len(f.Payload) == 1 && f.Payload[0] == 0xf6)
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("worker: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal encodes v as a frame payload.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a frame payload into v.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
