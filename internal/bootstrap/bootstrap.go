// Package bootstrap resolves the initial set of peer addresses a node
// tries to join through, and optionally registers/deregisters this
// node's own address so later joiners can find it. It is an external
// collaborator to the ring core (spec §1: "out of scope except for the
// interfaces the core requires") — internal/ring never imports this
// package; cmd/chordnode wires the two together.
package bootstrap

import "context"

// Bootstrap discovers candidate introducer addresses and, for discovery
// mechanisms that need it, registers this node so future joiners can
// discover it in turn.
type Bootstrap interface {
	// Discover returns zero or more addresses of nodes believed to
	// already be part of a ring. An empty, error-free result means
	// "no ring exists yet — create one".
	Discover(ctx context.Context) ([]string, error)

	// Register advertises addr as a live ring member.
	Register(ctx context.Context, addr string) error

	// Deregister withdraws a previous Register call's advertisement.
	Deregister(ctx context.Context, addr string) error
}
