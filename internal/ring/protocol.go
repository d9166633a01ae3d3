package ring

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"chordring/internal/logger"
)

// Instance is a running Chord node: its identity, its routing state, and
// the single goroutine (started by Start, see driver.go) that owns every
// mutation of that state. All exported methods are safe to call from any
// goroutine — mutators enqueue a command for the actor to run, read-only
// calls load the published snapshot directly.
type Instance struct {
	self      Node
	space     Space
	transport Transport
	log       logger.Logger

	cmdCh chan command
	stop  chan struct{}

	snap    atomic.Pointer[snapshot]
	metrics Metrics
}

// Metrics returns this node's live routing statistics.
func (n *Instance) Metrics() *Metrics { return &n.metrics }

// Config holds everything New needs beyond the identity derived from the
// listen address.
type Config struct {
	Space     Space
	Transport Transport
	Logger    logger.Logger
}

// New constructs a Chord node identified by addr, with an empty finger
// table and no known predecessor. The caller must call Start before the
// node will process stabilization ticks, and Join (or CreateRing) before
// it takes part in a ring.
func New(addr string, cfg Config) *Instance {
	lg := cfg.Logger
	if lg == nil {
		lg = logger.Nop()
	}
	self := Node{ID: cfg.Space.Hash(addr), Addr: addr}
	inst := &Instance{
		self:      self,
		space:     cfg.Space,
		transport: cfg.Transport,
		log:       lg.Named("ring").WithNode(self.ID.ToHexString(), self.Addr),
		cmdCh:     make(chan command),
		stop:      make(chan struct{}),
	}
	inst.snap.Store(&snapshot{
		self:      self,
		successor: self,
		fingers:   make([]Node, cfg.Space.Bits),
	})
	return inst
}

// Self returns this node's identity.
func (n *Instance) Self() Node { return n.self }

func (n *Instance) view() *snapshot { return n.snap.Load() }

// Successor returns the node currently believed to own the segment of
// the ring immediately clockwise of this node.
func (n *Instance) Successor() Node { return n.view().successor }

// Predecessor returns the node currently believed to own the segment of
// the ring immediately counter-clockwise of this node, and false if none
// is known yet.
func (n *Instance) Predecessor() (Node, bool) {
	v := n.view()
	return v.predecessor, v.hasPred
}

// Finger returns finger table slot k (0-indexed), or the zero Node if
// slot k has never been populated.
func (n *Instance) Finger(k int) Node { return n.view().finger(k) }

// mutate enqueues fn to run on the actor goroutine and blocks until it
// has applied and published the resulting snapshot. It is the only way
// any routing state changes, which is what makes the state safe to read
// via a plain atomic load everywhere else.
func (n *Instance) mutate(ctx context.Context, fn func(st *snapshot) *snapshot) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case n.cmdCh <- cmd:
	case <-n.stop:
		return fmt.Errorf("ring: node %s is stopped", n.self)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-n.stop:
		return fmt.Errorf("ring: node %s is stopped", n.self)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateRing initializes a brand-new ring with this node as its only
// member: successor is itself, predecessor is unknown. A solo node's
// predecessor stays unset rather than self (matching the reference
// Chord implementation's nil-predecessor start state, grounded in
// _examples/narendran-go-chord/vnode.go's localVnode.predecessor == nil
// until a distinct peer notifies it) — setting it to self here would
// make Notify's "predecessor == self ⇒ open interval is empty" rule
// permanently reject every later join's candidacy.
func (n *Instance) CreateRing(ctx context.Context) error {
	return n.mutate(ctx, func(st *snapshot) *snapshot {
		next := st.clone()
		next.successor = next.self
		next.hasPred = false
		return next
	})
}

// Join asks introducer to resolve this node's successor and adopts the
// result. It does not set a predecessor: stabilize fills that in once
// the new successor notices this node (spec §4.D — "join leaves
// predecessor unset; stabilize converges it").
func (n *Instance) Join(ctx context.Context, introducer Node) error {
	peer, err := n.transport.Dial(ctx, introducer.Addr)
	if err != nil {
		return &JoinFailure{Node: introducer, Message: err.Error()}
	}
	defer peer.Close()

	succ, err := peer.FindSuccessor(ctx, n.self.ID)
	if err != nil {
		return &JoinFailure{Node: introducer, Message: err.Error()}
	}
	n.log.Info("joined ring", logger.F("introducer", introducer.String()), logger.F("successor", succ.String()))
	return n.mutate(ctx, func(st *snapshot) *snapshot {
		next := st.clone()
		next.successor = succ
		return next
	})
}

// FindSuccessor resolves the node that owns id: the first node whose
// identifier is >= id walking clockwise from the id itself (spec §4.E.1).
// It never mutates this node's own state; it only issues (possibly
// remote) reads, so it may run concurrently with stabilize/notify/join.
func (n *Instance) FindSuccessor(ctx context.Context, id Digest) (Node, error) {
	start := time.Now()
	succ, hops, err := n.findSuccessor(ctx, id)
	n.metrics.recordLookup(hops, time.Since(start), err)
	return succ, err
}

func (n *Instance) findSuccessor(ctx context.Context, id Digest) (Node, int, error) {
	pred, hops, err := n.findPredecessor(ctx, id)
	if err != nil {
		return Node{}, hops, err
	}
	if pred.Equal(n.self) {
		return n.view().successor, hops, nil
	}
	peer, err := n.transport.Dial(ctx, pred.Addr)
	if err != nil {
		return Node{}, hops, &TransportError{Addr: pred.Addr, Err: err}
	}
	defer peer.Close()
	succ, err := peer.GetSuccessor(ctx)
	if err != nil {
		return Node{}, hops, &RpcError{Method: "get_successor", Err: err}
	}
	return succ, hops, nil
}

// FindPredecessor walks the ring clockwise, hopping through successively
// closer nodes' finger tables, until it finds the node n' such that id
// lies in (n', n'.successor] (spec §4.E.2). This is the half-open-right
// interval fix over the textbook presentation: a strict-open test here
// spins forever whenever id equals the current successor's identifier.
func (n *Instance) FindPredecessor(ctx context.Context, id Digest) (Node, error) {
	node, _, err := n.findPredecessor(ctx, id)
	return node, err
}

func (n *Instance) findPredecessor(ctx context.Context, id Digest) (Node, int, error) {
	cur := n.self
	curSucc := n.view().successor
	hops := 0

	for !InHalfOpenRight(id, cur.ID, curSucc.ID) {
		hops++
		var next Node
		var err error
		if cur.Equal(n.self) {
			next, err = n.ClosestPrecedingFinger(ctx, id)
		} else {
			peer, dialErr := n.transport.Dial(ctx, cur.Addr)
			if dialErr != nil {
				return Node{}, hops, &TransportError{Addr: cur.Addr, Err: dialErr}
			}
			next, err = peer.ClosestPrecedingFinger(ctx, id)
			peer.Close()
		}
		if err != nil {
			return Node{}, hops, &RpcError{Method: "closest_preceding_finger", Err: err}
		}
		if next.Equal(cur) {
			// No finger beats cur; forward to cur's successor instead of
			// giving up (grounded in the teacher's LookUp: "if closest is
			// self ... forward to successor"). This is what keeps lookups
			// correct by walking the successor chain alone, before
			// fix_fingers has populated anything beyond self.
			next = curSucc
		}
		if next.Equal(cur) {
			// Successor is also cur: a true dead end (solo ring).
			break
		}
		cur = next
		if cur.Equal(n.self) {
			curSucc = n.view().successor
			continue
		}
		peer, err := n.transport.Dial(ctx, cur.Addr)
		if err != nil {
			return Node{}, hops, &TransportError{Addr: cur.Addr, Err: err}
		}
		curSucc, err = peer.GetSuccessor(ctx)
		peer.Close()
		if err != nil {
			return Node{}, hops, &RpcError{Method: "get_successor", Err: err}
		}
	}
	return cur, hops, nil
}

// ClosestPrecedingFinger scans the finger table backwards from the
// highest slot for the finger furthest along the ring that still falls
// strictly between this node and id (spec §4.E.3). It reads the current
// snapshot and never mutates, so it can be served as a pure read-only RPC.
func (n *Instance) ClosestPrecedingFinger(ctx context.Context, id Digest) (Node, error) {
	st := n.view()
	for i := n.space.Bits - 1; i >= 0; i-- {
		f := st.finger(i)
		if f.Addr == "" {
			continue
		}
		if InOpen(f.ID, n.self.ID, id) {
			return f, nil
		}
	}
	return n.self, nil
}

// Notify is invoked by a peer that believes it may be this node's
// predecessor. If no predecessor is currently known, or candidate lies
// strictly between the current predecessor and this node, candidate is
// adopted (spec §4.D.notify). The RPC handler calls this directly; it is
// also exposed so tests can drive it without a transport.
func (n *Instance) Notify(ctx context.Context, candidate Node) error {
	atomic.AddUint64(&n.metrics.NotifyReceived, 1)
	return n.mutate(ctx, func(st *snapshot) *snapshot {
		if st.hasPred && !InOpen(candidate.ID, st.predecessor.ID, st.self.ID) {
			return st
		}
		next := st.clone()
		next.predecessor = candidate
		next.hasPred = true
		return next
	})
}

// Stabilize asks this node's successor for its predecessor, adopts that
// predecessor as this node's new successor when it falls strictly
// between the two, and unconditionally notifies the (possibly updated)
// successor of this node's existence (spec §4.D.stabilize). Per the
// original reference design, notify is sent every round even when the
// successor did not change: it is how this node's own notify reaches a
// peer that restarted and forgot its predecessor.
//
// A sole member of the ring is its own successor, and dialing self is a
// programming error (spec §4.C), so that case is handled without an RPC:
// x is read straight off this node's own predecessor field instead of
// fetched from the successor. The general in_open(x, self, successor)
// check is skipped here rather than evaluated, because self == successor
// makes it in_open(x, id, id), which is false for every x under the
// a==b edge rule (spec §4.A) — correct for every other use of in_open,
// but it would make a solo node permanently unable to adopt the first
// peer that notifies it. Chord's own convention for this degenerate case
// is that the interval between a lone node and itself is the whole ring,
// so any distinct node already recorded as predecessor is adopted.
func (n *Instance) Stabilize(ctx context.Context) error {
	succ := n.view().successor
	if succ.Equal(n.self) {
		pred, ok := n.Predecessor()
		if !ok || pred.Equal(n.self) {
			return nil
		}
		if mutErr := n.mutate(ctx, func(st *snapshot) *snapshot {
			next := st.clone()
			next.successor = pred
			return next
		}); mutErr != nil {
			return mutErr
		}
		succ = pred
	} else {
		peer, err := n.transport.Dial(ctx, succ.Addr)
		if err != nil {
			return &TransportError{Addr: succ.Addr, Err: err}
		}
		x, ok, err := peer.GetPredecessor(ctx)
		peer.Close()
		if err != nil {
			return &RpcError{Method: "get_predecessor", Err: err}
		}
		if ok && InOpen(x.ID, n.self.ID, succ.ID) {
			succ = x
			if mutErr := n.mutate(ctx, func(st *snapshot) *snapshot {
				next := st.clone()
				next.successor = succ
				return next
			}); mutErr != nil {
				return mutErr
			}
		}
	}

	notifyPeer, err := n.transport.Dial(ctx, succ.Addr)
	if err != nil {
		return &TransportError{Addr: succ.Addr, Err: err}
	}
	defer notifyPeer.Close()
	if err := notifyPeer.Notify(ctx, n.self); err != nil {
		return &RpcError{Method: "notify", Err: err}
	}
	return nil
}

// FixFinger recomputes a single finger table slot k by looking up the
// owner of start_k = self + 2^k (spec §4.D.fix_fingers). Slots are fixed
// one at a time, round-robin, by the periodic driver rather than all at
// once, to keep any single tick cheap.
func (n *Instance) FixFinger(ctx context.Context, k int) error {
	start := n.space.FingerStart(n.self.ID, k)
	owner, err := n.FindSuccessor(ctx, start)
	if err != nil {
		return err
	}
	return n.mutate(ctx, func(st *snapshot) *snapshot {
		next := st.clone()
		next.fingers[k] = owner
		return next
	})
}

// CheckPredecessor probes the current predecessor and clears it if the
// probe fails, so a dead predecessor does not permanently block a new
// one from being adopted via notify (spec §4.D — best-effort failure
// detection, not a strong membership protocol).
func (n *Instance) CheckPredecessor(ctx context.Context) {
	pred, ok := n.Predecessor()
	if !ok {
		return
	}
	peer, err := n.transport.Dial(ctx, pred.Addr)
	if err != nil {
		n.forgetPredecessor(ctx, pred)
		return
	}
	defer peer.Close()
	if _, err := peer.GetNode(ctx); err != nil {
		n.forgetPredecessor(ctx, pred)
	}
}

func (n *Instance) forgetPredecessor(ctx context.Context, stale Node) {
	n.log.Warn("predecessor unreachable, forgetting", logger.F("predecessor", stale.String()))
	_ = n.mutate(ctx, func(st *snapshot) *snapshot {
		if st.hasPred && !st.predecessor.Equal(stale) {
			return st
		}
		next := st.clone()
		next.predecessor = Node{}
		next.hasPred = false
		return next
	})
}
