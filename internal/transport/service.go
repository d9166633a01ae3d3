package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"chordring/internal/ring"
)

// serviceName is the gRPC service path every method below is registered
// under: "/chordring.Ring/<Method>".
const serviceName = "chordring.Ring"

// RegisterRingServer attaches srv's RPC handlers to s under the Ring
// service. srv is almost always a *ring.Instance (ring.Instance satisfies
// ring.RPC directly), but any implementation works — this keeps the wire
// layer ignorant of the actor/snapshot machinery behind it.
func RegisterRingServer(s grpc.ServiceRegistrar, srv ring.RPC) {
	s.RegisterService(&ringServiceDesc, srv)
}

var ringServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ring.RPC)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetNode", Handler: getNodeHandler},
		{MethodName: "GetSuccessor", Handler: getSuccessorHandler},
		{MethodName: "GetPredecessor", Handler: getPredecessorHandler},
		{MethodName: "FindSuccessor", Handler: findSuccessorHandler},
		{MethodName: "FindPredecessor", Handler: findPredecessorHandler},
		{MethodName: "ClosestPrecedingFinger", Handler: closestPrecedingFingerHandler},
		{MethodName: "Notify", Handler: notifyHandler},
		{MethodName: "Stabilize", Handler: stabilizeHandler},
	},
	Metadata: "chordring/ring.proto",
}

func getNodeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, _ interface{}) (interface{}, error) {
		n, err := srv.(ring.RPC).HandleGetNode(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get_node: %v", err)
		}
		reply := toNodeMsg(n)
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetNode"}
	return interceptor(ctx, in, info, run)
}

func getSuccessorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, _ interface{}) (interface{}, error) {
		n, err := srv.(ring.RPC).HandleGetSuccessor(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get_successor: %v", err)
		}
		reply := toNodeMsg(n)
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetSuccessor"}
	return interceptor(ctx, in, info, run)
}

func getPredecessorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, _ interface{}) (interface{}, error) {
		n, ok, err := srv.(ring.RPC).HandleGetPredecessor(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "get_predecessor: %v", err)
		}
		reply := PredecessorReply{Node: toNodeMsg(n), Has: ok}
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetPredecessor"}
	return interceptor(ctx, in, info, run)
}

func findSuccessorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(IDMsg)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, req interface{}) (interface{}, error) {
		id := ring.Digest(req.(*IDMsg).ID)
		n, err := srv.(ring.RPC).HandleFindSuccessor(ctx, id)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "find_successor: %v", err)
		}
		reply := toNodeMsg(n)
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FindSuccessor"}
	return interceptor(ctx, in, info, run)
}

func findPredecessorHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(IDMsg)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, req interface{}) (interface{}, error) {
		id := ring.Digest(req.(*IDMsg).ID)
		n, err := srv.(ring.RPC).HandleFindPredecessor(ctx, id)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "find_predecessor: %v", err)
		}
		reply := toNodeMsg(n)
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FindPredecessor"}
	return interceptor(ctx, in, info, run)
}

func closestPrecedingFingerHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(IDMsg)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, req interface{}) (interface{}, error) {
		id := ring.Digest(req.(*IDMsg).ID)
		n, err := srv.(ring.RPC).HandleClosestPrecedingFinger(ctx, id)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "closest_preceding_finger: %v", err)
		}
		reply := toNodeMsg(n)
		return &reply, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ClosestPrecedingFinger"}
	return interceptor(ctx, in, info, run)
}

func notifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(NotifyMsg)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, req interface{}) (interface{}, error) {
		candidate := fromNodeMsg(req.(*NotifyMsg).Candidate)
		if err := srv.(ring.RPC).HandleNotify(ctx, candidate); err != nil {
			return nil, status.Errorf(codes.Internal, "notify: %v", err)
		}
		return &Empty{}, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Notify"}
	return interceptor(ctx, in, info, run)
}

func stabilizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, _ interface{}) (interface{}, error) {
		if err := srv.(ring.RPC).HandleStabilize(ctx); err != nil {
			return nil, status.Errorf(codes.Internal, "stabilize: %v", err)
		}
		return &Empty{}, nil
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Stabilize"}
	return interceptor(ctx, in, info, run)
}
