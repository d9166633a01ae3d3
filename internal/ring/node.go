package ring

import "fmt"

// Node is the wire-level identity of a ring member: its identifier and
// the address other peers dial to reach it. Node values are copied
// freely — they carry no connection state (spec §3: "must remain safe
// to copy by value; it never holds a live connection").
type Node struct {
	ID   Digest
	Addr string
}

// String renders a Node for logs and debug output.
func (n Node) String() string {
	return fmt.Sprintf("%s@%s", n.ID.ToHexString(), n.Addr)
}

// Equal reports whether two nodes name the same ring member. Only the
// identifier is compared: two records with equal id are the same member
// even if their address strings differ in lexical form (spec §4.B —
// addresses are already normalized by the operator, so id is the sole
// key).
func (n Node) Equal(other Node) bool {
	return n.ID.Equal(other.ID)
}

// IsZero reports whether n is the unset Node value, used to represent
// "no predecessor known yet".
func (n Node) IsZero() bool {
	return n.Addr == "" && len(n.ID) == 0
}
