package ring

import "fmt"

// TransportError wraps a failure to reach a peer at Addr — dial failure,
// timeout, or a connection that was open but has gone stale. Callers use
// this to distinguish "peer unreachable" from a protocol-level RpcError.
type TransportError struct {
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ring: transport error dialing %s: %v", e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RpcError wraps a failure returned by a peer for a specific RPC method,
// as opposed to a failure to reach the peer at all.
type RpcError struct {
	Method string
	Err    error
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("ring: rpc %s failed: %v", e.Method, e.Err)
}

func (e *RpcError) Unwrap() error { return e.Err }

// JoinFailure reports that a node could not join the ring through the
// given introducer.
type JoinFailure struct {
	Node    Node
	Message string
}

func (e *JoinFailure) Error() string {
	return fmt.Sprintf("ring: join via %s failed: %s", e.Node, e.Message)
}

// NoLiveReplica reports that every node this node could ask about Digest
// failed to answer — the lookup cannot make progress.
type NoLiveReplica struct {
	Digest Digest
}

func (e *NoLiveReplica) Error() string {
	return fmt.Sprintf("ring: no live node could resolve %s", e.Digest.ToHexString())
}

// InvariantViolation marks a condition the protocol guarantees cannot
// happen — e.g. a node finding itself outside its own finger table's
// valid range. Nothing in this module constructs one. The actor goroutine
// (driver.go) recovers any panic raised inside a state command, logs it,
// drops that command's state change and keeps serving; it does not stop
// the node.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("ring: invariant violated: %s", e.Reason)
}
