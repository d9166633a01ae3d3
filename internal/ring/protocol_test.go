package ring

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// loopbackTransport dials directly into other *Instance values registered
// in the same test, skipping the network entirely. This is the in-process
// harness spec.md §8's scenarios are written against.
type loopbackTransport struct {
	nodes map[string]*Instance
}

func newLoopbackTransport() *loopbackTransport {
	return &loopbackTransport{nodes: make(map[string]*Instance)}
}

func (lt *loopbackTransport) register(inst *Instance) {
	lt.nodes[inst.self.Addr] = inst
}

func (lt *loopbackTransport) Dial(ctx context.Context, addr string) (Peer, error) {
	target, ok := lt.nodes[addr]
	if !ok {
		return nil, fmt.Errorf("loopback: no such node %q", addr)
	}
	return &loopbackPeer{target: target}, nil
}

// loopbackPeer satisfies ring.Peer by calling straight into another
// Instance's exported RPC-shaped methods, the same calls rpc_server.go
// exposes over gRPC.
type loopbackPeer struct{ target *Instance }

func (p *loopbackPeer) GetNode(ctx context.Context) (Node, error) { return p.target.Self(), nil }

func (p *loopbackPeer) GetSuccessor(ctx context.Context) (Node, error) {
	return p.target.Successor(), nil
}

func (p *loopbackPeer) GetPredecessor(ctx context.Context) (Node, bool, error) {
	n, ok := p.target.Predecessor()
	return n, ok, nil
}

func (p *loopbackPeer) FindSuccessor(ctx context.Context, id Digest) (Node, error) {
	return p.target.FindSuccessor(ctx, id)
}

func (p *loopbackPeer) FindPredecessor(ctx context.Context, id Digest) (Node, error) {
	return p.target.FindPredecessor(ctx, id)
}

func (p *loopbackPeer) ClosestPrecedingFinger(ctx context.Context, id Digest) (Node, error) {
	return p.target.ClosestPrecedingFinger(ctx, id)
}

func (p *loopbackPeer) Notify(ctx context.Context, candidate Node) error {
	return p.target.Notify(ctx, candidate)
}

func (p *loopbackPeer) Stabilize(ctx context.Context) error {
	return p.target.Stabilize(ctx)
}

func (p *loopbackPeer) Close() error { return nil }

// newTestNode builds an Instance addressed at addr, forces its identifier
// to id (real scenarios in spec.md §8 name exact ids, which sha1(addr)
// cannot be made to hit), registers it with lt, and starts its actor
// goroutine so mutate() has a reader. t.Cleanup stops the actor.
func newTestNode(t *testing.T, sp Space, lt *loopbackTransport, id uint64, addr string) *Instance {
	t.Helper()
	inst := New(addr, Config{Space: sp, Transport: lt, Logger: nil})
	inst.self.ID = sp.FromUint64(id)
	inst.snap.Load().self = inst.self
	go inst.runActor()
	t.Cleanup(func() { close(inst.stop) })
	lt.register(inst)
	return inst
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// S1 — Solo ring.
func TestScenarioSoloRing(t *testing.T) {
	sp := mustSpace(t, 6)
	lt := newLoopbackTransport()
	n0 := newTestNode(t, sp, lt, 0, "n0")
	ctx := ctxT(t)

	if err := n0.CreateRing(ctx); err != nil {
		t.Fatalf("CreateRing: %v", err)
	}
	if got := n0.Successor(); !got.ID.Equal(sp.FromUint64(0)) {
		t.Fatalf("successor.id = %x, want 0", got.ID)
	}

	before := n0.view()
	if err := n0.Stabilize(ctx); err != nil {
		t.Fatalf("Stabilize: %v", err)
	}
	after := n0.view()
	if !after.successor.Equal(before.successor) || after.hasPred != before.hasPred {
		t.Fatalf("solo stabilize() changed state: before=%+v after=%+v", before, after)
	}
	if _, ok := n0.Predecessor(); ok {
		t.Fatalf("solo node acquired a predecessor out of nowhere")
	}
}

// S2 — Two-node join (Chord paper, Figure 3b prefix).
func TestScenarioTwoNodeJoin(t *testing.T) {
	sp := mustSpace(t, 6)
	lt := newLoopbackTransport()
	n0 := newTestNode(t, sp, lt, 0, "n0")
	n1 := newTestNode(t, sp, lt, 1, "n1")
	ctx := ctxT(t)

	if err := n0.CreateRing(ctx); err != nil {
		t.Fatalf("n0.CreateRing: %v", err)
	}
	if err := n1.Join(ctx, n0.Self()); err != nil {
		t.Fatalf("n1.Join: %v", err)
	}
	if got := n1.Successor(); !got.ID.Equal(sp.FromUint64(0)) {
		t.Fatalf("immediately after join: n1.successor.id = %x, want 0", got.ID)
	}

	if err := n1.Stabilize(ctx); err != nil {
		t.Fatalf("n1.Stabilize: %v", err)
	}
	if err := n0.Stabilize(ctx); err != nil {
		t.Fatalf("n0.Stabilize: %v", err)
	}

	if pred, ok := n0.Predecessor(); !ok || !pred.ID.Equal(sp.FromUint64(1)) {
		t.Fatalf("n0.predecessor = (ok=%v, %v), want id 1", ok, pred)
	}
	if got := n0.Successor(); !got.ID.Equal(sp.FromUint64(1)) {
		t.Fatalf("n0.successor.id = %x, want 1", got.ID)
	}
	if pred, ok := n1.Predecessor(); !ok || !pred.ID.Equal(sp.FromUint64(0)) {
		t.Fatalf("n1.predecessor = (ok=%v, %v), want id 0", ok, pred)
	}
	if got := n1.Successor(); !got.ID.Equal(sp.FromUint64(0)) {
		t.Fatalf("n1.successor.id = %x, want 0 (ring of two wraps)", got.ID)
	}
}

// converge runs stabilize on every node, in order, for rounds iterations —
// the harness S3's "run stabilize on n0, n1, n3 several rounds" describes.
func converge(t *testing.T, ctx context.Context, rounds int, nodes ...*Instance) {
	t.Helper()
	for r := 0; r < rounds; r++ {
		for _, n := range nodes {
			if err := n.Stabilize(ctx); err != nil {
				t.Fatalf("round %d: %s.Stabilize: %v", r, n.Self().Addr, err)
			}
		}
	}
}

func buildThreeNodeRing(t *testing.T) (sp Space, lt *loopbackTransport, n0, n1, n3 *Instance) {
	t.Helper()
	sp = mustSpace(t, 6)
	lt = newLoopbackTransport()
	n0 = newTestNode(t, sp, lt, 0, "n0")
	n1 = newTestNode(t, sp, lt, 1, "n1")
	n3 = newTestNode(t, sp, lt, 3, "n3")
	ctx := ctxT(t)

	if err := n0.CreateRing(ctx); err != nil {
		t.Fatalf("n0.CreateRing: %v", err)
	}
	if err := n1.Join(ctx, n0.Self()); err != nil {
		t.Fatalf("n1.Join: %v", err)
	}
	converge(t, ctx, 2, n1, n0)
	if err := n3.Join(ctx, n1.Self()); err != nil {
		t.Fatalf("n3.Join: %v", err)
	}
	converge(t, ctx, 6, n0, n1, n3)
	return sp, lt, n0, n1, n3
}

// S3 — Three-node join.
func TestScenarioThreeNodeJoin(t *testing.T) {
	sp, _, n0, n1, n3 := buildThreeNodeRing(t)

	wantSucc := map[string]uint64{"n0": 1, "n1": 3, "n3": 0}
	wantPred := map[string]uint64{"n0": 3, "n1": 0, "n3": 1}
	for _, n := range []*Instance{n0, n1, n3} {
		addr := n.Self().Addr
		if got := n.Successor(); !got.ID.Equal(sp.FromUint64(wantSucc[addr])) {
			t.Errorf("%s.successor.id = %x, want %d", addr, got.ID, wantSucc[addr])
		}
		pred, ok := n.Predecessor()
		if !ok || !pred.ID.Equal(sp.FromUint64(wantPred[addr])) {
			t.Errorf("%s.predecessor = (ok=%v, %v), want id %d", addr, ok, pred, wantPred[addr])
		}
	}
}

// S4 — Lookup hops.
func TestScenarioLookupHops(t *testing.T) {
	sp, _, n0, _, n3 := buildThreeNodeRing(t)
	ctx := ctxT(t)

	got, err := n0.FindSuccessor(ctx, sp.FromUint64(2))
	if err != nil {
		t.Fatalf("n0.FindSuccessor(2): %v", err)
	}
	if !got.ID.Equal(sp.FromUint64(3)) {
		t.Fatalf("n0.FindSuccessor(2).id = %x, want 3", got.ID)
	}

	got, err = n3.FindSuccessor(ctx, sp.FromUint64(2))
	if err != nil {
		t.Fatalf("n3.FindSuccessor(2): %v", err)
	}
	if !got.ID.Equal(sp.FromUint64(3)) {
		t.Fatalf("n3.FindSuccessor(2).id = %x, want 3", got.ID)
	}
}

// S5 — Finger convergence.
func TestScenarioFingerConvergence(t *testing.T) {
	sp, _, n0, n1, n3 := buildThreeNodeRing(t)
	ctx := ctxT(t)

	for round := 0; round < sp.Bits*4; round++ {
		k := round % sp.Bits
		for _, n := range []*Instance{n0, n1, n3} {
			if err := n.FixFinger(ctx, k); err != nil {
				t.Fatalf("%s.FixFinger(%d): %v", n.Self().Addr, k, err)
			}
		}
	}

	want := map[int]uint64{0: 1, 1: 3, 2: 0}
	for k, id := range want {
		got := n0.Finger(k)
		if !got.ID.Equal(sp.FromUint64(id)) {
			t.Errorf("n0.finger[%d].id = %x, want %d", k, got.ID, id)
		}
	}
	for k := 3; k < sp.Bits; k++ {
		got := n0.Finger(k)
		if !got.ID.Equal(sp.FromUint64(0)) {
			t.Errorf("n0.finger[%d].id = %x, want 0 (wraps to self)", k, got.ID)
		}
	}
}

// S6 — Notify rejection.
func TestScenarioNotifyRejection(t *testing.T) {
	sp, _, _, n1, _ := buildThreeNodeRing(t)
	ctx := ctxT(t)

	before, ok := n1.Predecessor()
	if !ok {
		t.Fatalf("n1 has no predecessor before the rejected notify")
	}

	fake := Node{ID: sp.FromUint64(5), Addr: "n-fake"}
	if err := n1.Notify(ctx, fake); err != nil {
		t.Fatalf("n1.Notify(fake): %v", err)
	}

	after, ok := n1.Predecessor()
	if !ok || !after.Equal(before) {
		t.Fatalf("n1.predecessor changed on a rejected notify: before=%v after=(ok=%v, %v)", before, ok, after)
	}
}
