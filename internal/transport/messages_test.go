package transport

import (
	"testing"

	"chordring/internal/ring"
)

func TestNodeMsgRoundTrip(t *testing.T) {
	n := ring.Node{ID: ring.Digest{0xAB, 0xCD}, Addr: "10.0.0.5:7946"}

	got := fromNodeMsg(toNodeMsg(n))
	if !got.Equal(n) || got.Addr != n.Addr {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestNodeMsgZeroValue(t *testing.T) {
	var n ring.Node
	got := fromNodeMsg(toNodeMsg(n))
	if !got.IsZero() {
		t.Fatalf("expected zero Node to round-trip as zero, got %+v", got)
	}
}
