package transport

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestGobCodecRoundTrip(t *testing.T) {
	c := gobCodec{}
	in := NodeMsg{ID: []byte{1, 2, 3}, Addr: "10.0.0.1:7946"}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out NodeMsg
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Addr != in.Addr || string(out.ID) != string(in.ID) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestGobCodecRegistered(t *testing.T) {
	if encoding.GetCodec(CodecName) == nil {
		t.Fatalf("codec %q not registered", CodecName)
	}
}

func TestGobCodecRoundTripPredecessorReply(t *testing.T) {
	c := gobCodec{}
	in := PredecessorReply{Node: NodeMsg{ID: []byte{9}, Addr: "n1"}, Has: true}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out PredecessorReply
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Has != in.Has || out.Node.Addr != in.Node.Addr {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}
