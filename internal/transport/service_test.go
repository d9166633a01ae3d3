package transport

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/status"

	"chordring/internal/ring"
)

// fakeRPC is a minimal ring.RPC stand-in so the hand-rolled handlers above
// can be exercised without spinning up an actor or a real network listener.
type fakeRPC struct {
	node        ring.Node
	pred        ring.Node
	hasPred     bool
	notified    ring.Node
	stabilizeN  int
	returnedErr error
}

func (f *fakeRPC) HandleGetNode(ctx context.Context) (ring.Node, error) { return f.node, f.returnedErr }
func (f *fakeRPC) HandleGetSuccessor(ctx context.Context) (ring.Node, error) {
	return f.node, f.returnedErr
}
func (f *fakeRPC) HandleGetPredecessor(ctx context.Context) (ring.Node, bool, error) {
	return f.pred, f.hasPred, f.returnedErr
}
func (f *fakeRPC) HandleFindSuccessor(ctx context.Context, id ring.Digest) (ring.Node, error) {
	return f.node, f.returnedErr
}
func (f *fakeRPC) HandleFindPredecessor(ctx context.Context, id ring.Digest) (ring.Node, error) {
	return f.node, f.returnedErr
}
func (f *fakeRPC) HandleClosestPrecedingFinger(ctx context.Context, id ring.Digest) (ring.Node, error) {
	return f.node, f.returnedErr
}
func (f *fakeRPC) HandleNotify(ctx context.Context, candidate ring.Node) error {
	f.notified = candidate
	return f.returnedErr
}
func (f *fakeRPC) HandleStabilize(ctx context.Context) error {
	f.stabilizeN++
	return f.returnedErr
}

var _ ring.RPC = (*fakeRPC)(nil)

func decodeInto(v interface{}) func(interface{}) error {
	return func(dst interface{}) error {
		switch d := dst.(type) {
		case *Empty:
			*d = *(v.(*Empty))
		case *IDMsg:
			*d = *(v.(*IDMsg))
		case *NotifyMsg:
			*d = *(v.(*NotifyMsg))
		default:
			return errors.New("decodeInto: unsupported message type")
		}
		return nil
	}
}

func TestGetNodeHandler(t *testing.T) {
	f := &fakeRPC{node: ring.Node{ID: ring.Digest{1}, Addr: "n1"}}
	reply, err := getNodeHandler(f, context.Background(), decodeInto(&Empty{}), nil)
	if err != nil {
		t.Fatalf("getNodeHandler: %v", err)
	}
	got := reply.(*NodeMsg)
	if got.Addr != "n1" {
		t.Fatalf("reply.Addr = %q, want n1", got.Addr)
	}
}

func TestGetPredecessorHandlerNoPredecessor(t *testing.T) {
	f := &fakeRPC{hasPred: false}
	reply, err := getPredecessorHandler(f, context.Background(), decodeInto(&Empty{}), nil)
	if err != nil {
		t.Fatalf("getPredecessorHandler: %v", err)
	}
	got := reply.(*PredecessorReply)
	if got.Has {
		t.Fatalf("expected Has=false, got true")
	}
}

func TestFindSuccessorHandlerPropagatesError(t *testing.T) {
	f := &fakeRPC{returnedErr: errors.New("boom")}
	in := &IDMsg{ID: []byte{0x01}}
	_, err := findSuccessorHandler(f, context.Background(), decodeInto(in), nil)
	if err == nil {
		t.Fatal("expected an error from findSuccessorHandler")
	}
	if status.Convert(err).Message() == "" {
		t.Fatalf("expected a gRPC status error, got %v", err)
	}
}

func TestNotifyHandlerForwardsCandidate(t *testing.T) {
	f := &fakeRPC{}
	in := &NotifyMsg{Candidate: NodeMsg{ID: []byte{7}, Addr: "n7"}}
	_, err := notifyHandler(f, context.Background(), decodeInto(in), nil)
	if err != nil {
		t.Fatalf("notifyHandler: %v", err)
	}
	if f.notified.Addr != "n7" {
		t.Fatalf("fakeRPC.notified.Addr = %q, want n7", f.notified.Addr)
	}
}

func TestStabilizeHandlerInvokesHandler(t *testing.T) {
	f := &fakeRPC{}
	if _, err := stabilizeHandler(f, context.Background(), decodeInto(&Empty{}), nil); err != nil {
		t.Fatalf("stabilizeHandler: %v", err)
	}
	if f.stabilizeN != 1 {
		t.Fatalf("stabilizeN = %d, want 1", f.stabilizeN)
	}
}
