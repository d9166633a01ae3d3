package transport

import (
	"context"
	"testing"
)

// grpc.NewClient is lazy: it builds a ClientConn without dialing, so these
// tests exercise the cache/coalesce/evict bookkeeping without a live peer.

func TestPoolDialCachesConnection(t *testing.T) {
	p := NewPool("self:7946", nil)
	ctx := context.Background()

	first, err := p.Dial(ctx, "peer:7946")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	second, err := p.Dial(ctx, "peer:7946")
	if err != nil {
		t.Fatalf("Dial (cached): %v", err)
	}

	fc := first.(*grpcPeer).conn
	sc := second.(*grpcPeer).conn
	if fc != sc {
		t.Fatalf("expected Dial to reuse the cached *grpc.ClientConn, got two distinct connections")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPoolDialSelfPanics(t *testing.T) {
	p := NewPool("self:7946", nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected Dial(selfAddr) to panic")
		}
	}()
	_, _ = p.Dial(context.Background(), "self:7946")
}

func TestPoolEvictForcesRedial(t *testing.T) {
	p := NewPool("self:7946", nil)
	ctx := context.Background()

	first, err := p.Dial(ctx, "peer:7946")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	p.Evict("peer:7946")

	second, err := p.Dial(ctx, "peer:7946")
	if err != nil {
		t.Fatalf("Dial after evict: %v", err)
	}
	if first.(*grpcPeer).conn == second.(*grpcPeer).conn {
		t.Fatalf("expected Evict to force a fresh connection on next Dial")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPoolCloseEmptiesCache(t *testing.T) {
	p := NewPool("self:7946", nil)
	ctx := context.Background()
	if _, err := p.Dial(ctx, "peer-a:7946"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := p.Dial(ctx, "peer-b:7946"); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	p.mu.Lock()
	n := len(p.conns)
	p.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected empty cache after Close, got %d entries", n)
	}
}
