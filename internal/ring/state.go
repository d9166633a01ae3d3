package ring

import (
	"context"
)

// Peer is the set of operations this package can invoke on a remote ring
// member. internal/transport supplies the concrete implementation over
// gRPC; this package only depends on the interface, so the protocol
// logic below never imports a transport concern directly.
type Peer interface {
	GetNode(ctx context.Context) (Node, error)
	GetSuccessor(ctx context.Context) (Node, error)
	GetPredecessor(ctx context.Context) (Node, bool, error)
	FindSuccessor(ctx context.Context, id Digest) (Node, error)
	FindPredecessor(ctx context.Context, id Digest) (Node, error)
	ClosestPrecedingFinger(ctx context.Context, id Digest) (Node, error)
	Notify(ctx context.Context, candidate Node) error
	Stabilize(ctx context.Context) error
	Close() error
}

// Transport dials peers by address. A Transport implementation owns
// connection pooling/caching; this package only ever asks for a Peer by
// address and never retains a connection itself (spec §4.C/§5: the
// connection cache "must not be copied by value" and lives entirely
// behind this interface).
type Transport interface {
	Dial(ctx context.Context, addr string) (Peer, error)
}

// snapshot is the immutable, atomically-published view of a node's
// routing state. Read-only RPC handlers (get_node, get_successor,
// get_predecessor, closest_preceding_finger) read a snapshot directly
// and never enter the actor's command queue, so they can be served
// concurrently with an in-flight stabilize or notify (spec §5: "read-only
// RPCs may observe a consistent snapshot concurrently with mutators").
type snapshot struct {
	self        Node
	successor   Node
	predecessor Node // IsZero() when none is known
	hasPred     bool
	fingers     []Node // length m; fingers[k] may be the zero Node if unset
}

func (s *snapshot) finger(k int) Node {
	if k < 0 || k >= len(s.fingers) {
		return Node{}
	}
	return s.fingers[k]
}

// clone returns a deep-enough copy for the actor to mutate before
// publishing a new snapshot. Only the actor goroutine ever calls this.
func (s *snapshot) clone() *snapshot {
	cp := *s
	cp.fingers = make([]Node, len(s.fingers))
	copy(cp.fingers, s.fingers)
	return &cp
}

// command is a unit of work executed exclusively on the actor goroutine
// (driver.go's run loop). Every mutation of a node's routing state is
// expressed as a command so the state is only ever touched from one
// goroutine at a time, matching the "Option (a)" single-owner design
// the concurrency model calls for instead of guarding the state with a
// mutex.
type command struct {
	fn   func(st *snapshot) *snapshot
	done chan struct{}
}
