// Package transport carries the ring protocol between peers over gRPC.
// Rather than generating message types and a client/server stub from a
// .proto file, it hand-writes a grpc.ServiceDesc and a gob-based
// encoding.Codec registered under a private content-subtype — gRPC's
// framing, flow control, and TLS/keepalive machinery are real, but no
// protoc step is involved.
package transport

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype this package registers its codec
// under (sent on the wire as content-type "application/grpc+gobchord").
const CodecName = "gobchord"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// gobCodec implements google.golang.org/grpc/encoding.Codec using
// encoding/gob. Every message type exchanged over this service is a
// plain exported struct, so no gob.Register calls are needed for
// interface values.
type gobCodec struct{}

func (gobCodec) Name() string { return CodecName }

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
