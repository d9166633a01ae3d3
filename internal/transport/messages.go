package transport

import "chordring/internal/ring"

// Wire message types for the hand-rolled Ring service. Every field is
// exported so the gob codec can see it.

type Empty struct{}

type NodeMsg struct {
	ID   []byte
	Addr string
}

type IDMsg struct {
	ID []byte
}

type PredecessorReply struct {
	Node NodeMsg
	Has  bool
}

type NotifyMsg struct {
	Candidate NodeMsg
}

func toNodeMsg(n ring.Node) NodeMsg {
	return NodeMsg{ID: []byte(n.ID), Addr: n.Addr}
}

func fromNodeMsg(m NodeMsg) ring.Node {
	return ring.Node{ID: ring.Digest(m.ID), Addr: m.Addr}
}
