package ring

import "context"

// RPC is the set of handlers internal/transport dispatches incoming
// requests to. Instance implements it directly; keeping the interface
// separate from Instance's other methods documents exactly which calls
// cross the wire (spec §6 — external interfaces).
type RPC interface {
	HandleGetNode(ctx context.Context) (Node, error)
	HandleGetSuccessor(ctx context.Context) (Node, error)
	HandleGetPredecessor(ctx context.Context) (Node, bool, error)
	HandleFindSuccessor(ctx context.Context, id Digest) (Node, error)
	HandleFindPredecessor(ctx context.Context, id Digest) (Node, error)
	HandleClosestPrecedingFinger(ctx context.Context, id Digest) (Node, error)
	HandleNotify(ctx context.Context, candidate Node) error
	HandleStabilize(ctx context.Context) error
}

var _ RPC = (*Instance)(nil)

// HandleGetNode answers "who are you" — used by CheckPredecessor as a
// liveness probe and by chordctl for diagnostics.
func (n *Instance) HandleGetNode(ctx context.Context) (Node, error) {
	return n.self, nil
}

// HandleGetSuccessor is a pure read of the current snapshot.
func (n *Instance) HandleGetSuccessor(ctx context.Context) (Node, error) {
	return n.view().successor, nil
}

// HandleGetPredecessor is a pure read of the current snapshot.
func (n *Instance) HandleGetPredecessor(ctx context.Context) (Node, bool, error) {
	v := n.view()
	return v.predecessor, v.hasPred, nil
}

// HandleFindSuccessor serves a remote find_successor request by running
// the same lookup this node uses locally.
func (n *Instance) HandleFindSuccessor(ctx context.Context, id Digest) (Node, error) {
	return n.FindSuccessor(ctx, id)
}

// HandleFindPredecessor serves a remote find_predecessor request.
func (n *Instance) HandleFindPredecessor(ctx context.Context, id Digest) (Node, error) {
	return n.FindPredecessor(ctx, id)
}

// HandleClosestPrecedingFinger serves a remote closest_preceding_finger
// request; it is a pure read, servable while a mutator is in flight.
func (n *Instance) HandleClosestPrecedingFinger(ctx context.Context, id Digest) (Node, error) {
	return n.ClosestPrecedingFinger(ctx, id)
}

// HandleNotify serves a remote notify request.
func (n *Instance) HandleNotify(ctx context.Context, candidate Node) error {
	return n.Notify(ctx, candidate)
}

// HandleStabilize lets a remote caller (chiefly test harnesses, per the
// original reference's figure_3b-style tests) trigger an immediate
// stabilize round on this node rather than waiting for its own ticker.
func (n *Instance) HandleStabilize(ctx context.Context) error {
	return n.Stabilize(ctx)
}
