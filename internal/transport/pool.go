package transport

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chordring/internal/logger"
	"chordring/internal/ring"
)

// Pool is the peer-client cache of component 4.C: a lazy, reused set of
// gRPC connections keyed by address, shared by every call site in this
// process that needs to reach a remote ring member. It implements
// ring.Transport so internal/ring never imports this package directly.
type Pool struct {
	selfAddr string
	dialOpts []grpc.DialOption
	log      logger.Logger

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
	group singleflight.Group
}

// NewPool builds a connection cache. selfAddr is this process's own
// advertised address — dialing it is a programming error (spec §4.C:
// "requesting a handle to self is a programming error") and panics rather
// than silently connecting to itself. Extra dialOpts (e.g. an otelgrpc
// stats handler) are applied to every dial.
func NewPool(selfAddr string, log logger.Logger, dialOpts ...grpc.DialOption) *Pool {
	if log == nil {
		log = logger.Nop()
	}
	return &Pool{
		selfAddr: selfAddr,
		dialOpts: dialOpts,
		log:      log.Named("transport"),
		conns:    make(map[string]*grpc.ClientConn),
	}
}

var _ ring.Transport = (*Pool)(nil)

// Dial returns a live Peer bound to addr, reusing a cached connection if
// one exists. Concurrent misses for the same address coalesce into a
// single dial via singleflight (spec §4.C: "concurrent misses for the
// same id should coalesce to a single connection attempt").
func (p *Pool) Dial(ctx context.Context, addr string) (ring.Peer, error) {
	if addr == p.selfAddr {
		panic(fmt.Sprintf("transport: refusing to dial self (%s) through the peer cache", addr))
	}

	p.mu.Lock()
	if conn, ok := p.conns[addr]; ok {
		p.mu.Unlock()
		return &grpcPeer{conn: conn}, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do(addr, func() (interface{}, error) {
		opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, p.dialOpts...)
		conn, dialErr := grpc.NewClient(addr, opts...)
		if dialErr != nil {
			return nil, dialErr
		}
		p.mu.Lock()
		p.conns[addr] = conn
		p.mu.Unlock()
		return conn, nil
	})
	if err != nil {
		p.log.Warn("dial failed", logger.F("addr", addr), logger.F("error", err.Error()))
		return nil, err
	}
	return &grpcPeer{conn: v.(*grpc.ClientConn)}, nil
}

// Evict drops addr's cached connection and closes it, so the next Dial
// reconnects from scratch. Nothing in this module calls it on a transport
// failure: a cached connection is kept until Evict or Close is called.
func (p *Pool) Evict(addr string) {
	p.mu.Lock()
	conn, ok := p.conns[addr]
	delete(p.conns, addr)
	p.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// Close releases every cached connection. Called once, when the owning
// node shuts down (spec §5: "outbound sockets are owned by the cache;
// they are released when the node shuts down").
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for addr, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, addr)
	}
	return firstErr
}
