package transport

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"chordring/internal/logger"
)

// LoggingUnaryServerInterceptor logs every incoming Ring RPC at debug
// level, tagged with the correlation id the caller's grpcPeer.invoke
// attached (or "-" if the call arrived from something that didn't set
// one, e.g. a raw chordctl debug session). This is the server-side half
// of the per-RPC correlation id: it lets an operator grep one id across
// every node a single lookup touched.
func LoggingUnaryServerInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	log = log.Named("rpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		cid := "-"
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(CorrelationIDHeader); len(vals) > 0 {
				cid = vals[0]
			}
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []logger.Field{
			logger.F("method", info.FullMethod),
			logger.F("correlation_id", cid),
			logger.F("duration_ms", time.Since(start).Milliseconds()),
		}
		if err != nil {
			log.Debug("rpc failed", append(fields, logger.F("error", err.Error()))...)
		} else {
			log.Debug("rpc served", fields...)
		}
		return resp, err
	}
}
