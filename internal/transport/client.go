package transport

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"chordring/internal/ring"
	"chordring/internal/telemetry"
)

// CorrelationIDHeader is the gRPC metadata key a correlation id travels
// under, so a lookup that hops across several peers can be traced end to
// end in logs even without a full OpenTelemetry collector attached.
const CorrelationIDHeader = "x-correlation-id"

// grpcPeer is the ring.Peer implementation used against a live node. It is
// a thin, disposable handle around a *grpc.ClientConn owned by a Pool —
// Close is a no-op here because the underlying connection outlives any
// single call (spec §4.C: "handles are long-lived").
type grpcPeer struct {
	conn *grpc.ClientConn
}

var _ ring.Peer = (*grpcPeer)(nil)

// NewDebugPeer wraps an already-dialed connection as a ring.Peer. It
// exists for chordctl and tests, which talk to a single node directly
// rather than through a Pool's address-keyed cache.
func NewDebugPeer(conn *grpc.ClientConn) ring.Peer {
	return &grpcPeer{conn: conn}
}

// invoke wraps every outbound Ring RPC in its own span, named after the
// ring method rather than the transport-level "/service/Method" path the
// otelgrpc stats handler already records — this is the hop a trace reader
// actually cares about (find_successor, notify, stabilize, ...); the
// lower-level gRPC span otelgrpc produces is nested inside it. It also stamps a
// fresh correlation id on the outbound metadata, so a lookup's hop
// through several peers' logs can be pieced back together even when no
// tracing backend is attached.
func (p *grpcPeer) invoke(ctx context.Context, method string, req, reply interface{}) error {
	cid := uuid.NewString()
	ctx = metadata.AppendToOutgoingContext(ctx, CorrelationIDHeader, cid)

	ctx, span := telemetry.Tracer().Start(ctx, "ring."+method,
		trace.WithAttributes(
			attribute.String("rpc.target", p.conn.Target()),
			attribute.String("rpc.correlation_id", cid),
		))
	defer span.End()

	err := p.conn.Invoke(ctx, "/"+serviceName+"/"+method, req, reply, grpc.CallContentSubtype(CodecName))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *grpcPeer) GetNode(ctx context.Context) (ring.Node, error) {
	var reply NodeMsg
	if err := p.invoke(ctx, "GetNode", &Empty{}, &reply); err != nil {
		return ring.Node{}, err
	}
	return fromNodeMsg(reply), nil
}

func (p *grpcPeer) GetSuccessor(ctx context.Context) (ring.Node, error) {
	var reply NodeMsg
	if err := p.invoke(ctx, "GetSuccessor", &Empty{}, &reply); err != nil {
		return ring.Node{}, err
	}
	return fromNodeMsg(reply), nil
}

func (p *grpcPeer) GetPredecessor(ctx context.Context) (ring.Node, bool, error) {
	var reply PredecessorReply
	if err := p.invoke(ctx, "GetPredecessor", &Empty{}, &reply); err != nil {
		return ring.Node{}, false, err
	}
	return fromNodeMsg(reply.Node), reply.Has, nil
}

func (p *grpcPeer) FindSuccessor(ctx context.Context, id ring.Digest) (ring.Node, error) {
	var reply NodeMsg
	if err := p.invoke(ctx, "FindSuccessor", &IDMsg{ID: []byte(id)}, &reply); err != nil {
		return ring.Node{}, err
	}
	return fromNodeMsg(reply), nil
}

func (p *grpcPeer) FindPredecessor(ctx context.Context, id ring.Digest) (ring.Node, error) {
	var reply NodeMsg
	if err := p.invoke(ctx, "FindPredecessor", &IDMsg{ID: []byte(id)}, &reply); err != nil {
		return ring.Node{}, err
	}
	return fromNodeMsg(reply), nil
}

func (p *grpcPeer) ClosestPrecedingFinger(ctx context.Context, id ring.Digest) (ring.Node, error) {
	var reply NodeMsg
	if err := p.invoke(ctx, "ClosestPrecedingFinger", &IDMsg{ID: []byte(id)}, &reply); err != nil {
		return ring.Node{}, err
	}
	return fromNodeMsg(reply), nil
}

func (p *grpcPeer) Notify(ctx context.Context, candidate ring.Node) error {
	return p.invoke(ctx, "Notify", &NotifyMsg{Candidate: toNodeMsg(candidate)}, &Empty{})
}

func (p *grpcPeer) Stabilize(ctx context.Context) error {
	return p.invoke(ctx, "Stabilize", &Empty{}, &Empty{})
}

// Close is intentionally a no-op: the connection is owned and closed by
// the Pool that dialed it, not by any individual call site.
func (p *grpcPeer) Close() error { return nil }
