// Command chordnode runs a single Chord ring member: it loads
// configuration, brings up the gRPC transport and the ring core, joins
// (or creates) a ring, and serves until a termination signal arrives.
// This follows the teacher's cmd/node/main.go end to end — flag parsing,
// config load/validate, logger init, listener, identifier space
// construction, client pool, gRPC server with otelgrpc stats handler,
// bootstrap branch, signal.NotifyContext, graceful-stop select — trimmed
// of the cache/storage/Koorde/simple-hash branches that are out of this
// spec's scope (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"

	"chordring/internal/bootstrap"
	"chordring/internal/config"
	"chordring/internal/logger"
	zapfactory "chordring/internal/logger/zap"
	"chordring/internal/ring"
	"chordring/internal/telemetry"
	"chordring/internal/transport"
)

var defaultConfigPath = "config/chordnode.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %q: %v", *configPath, err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zapLog, err := zapfactory.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()
	lgr := zapfactory.NewAdapter(zapLog)
	cfg.LogConfig(lgr)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Node.Bind, cfg.Node.Port))
	if err != nil {
		lgr.Error("failed to bind listener", logger.F("err", err))
		os.Exit(1)
	}
	defer func() { _ = lis.Close() }()

	advertiseHost := cfg.Node.Host
	if advertiseHost == "" {
		advertiseHost = lis.Addr().(*net.TCPAddr).IP.String()
	}
	advertised := fmt.Sprintf("%s:%d", advertiseHost, lis.Addr().(*net.TCPAddr).Port)
	lgr.Debug("listening", logger.F("bind", lis.Addr().String()), logger.F("advertised", advertised))

	shutdownTracer := telemetry.InitTracer(cfg.Telemetry.Tracing, "chordnode", advertised)
	defer func() { _ = shutdownTracer(context.Background()) }()

	space, err := ring.NewSpace(cfg.DHT.IDBits)
	if err != nil {
		lgr.Error("failed to initialize identifier space", logger.F("err", err))
		os.Exit(1)
	}

	var dialOpts []grpc.DialOption
	serverOpts := []grpc.ServerOption{grpc.UnaryInterceptor(transport.LoggingUnaryServerInterceptor(lgr))}
	if cfg.Telemetry.Tracing.Enabled {
		statsOpts := []otelgrpc.Option{
			otelgrpc.WithTracerProvider(otel.GetTracerProvider()),
			otelgrpc.WithPropagators(otel.GetTextMapPropagator()),
		}
		dialOpts = append(dialOpts, grpc.WithStatsHandler(otelgrpc.NewClientHandler(statsOpts...)))
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler(statsOpts...)))
	}

	pool := transport.NewPool(advertised, lgr, dialOpts...)
	defer func() { _ = pool.Close() }()

	inst := ring.Config{Space: space, Transport: pool, Logger: lgr}

	var register bootstrap.Bootstrap
	switch cfg.DHT.Bootstrap.Mode {
	case "route53":
		register, err = bootstrap.NewRoute53Bootstrap(context.Background(), cfg.DHT.Bootstrap.Route53)
		if err != nil {
			lgr.Error("failed to initialize Route53 bootstrap", logger.F("err", err))
			os.Exit(1)
		}
	default:
		register = bootstrap.NewStaticBootstrap(cfg.DHT.Bootstrap.Peers)
	}

	discoverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	peers, err := register.Discover(discoverCtx)
	cancel()
	if err != nil {
		lgr.Error("failed to resolve bootstrap peers", logger.F("err", err))
		os.Exit(1)
	}
	lgr.Info("resolved bootstrap peers", logger.F("peers", peers))

	var introducer *ring.Node
	for _, addr := range peers {
		if addr == advertised {
			continue
		}
		n := ring.Node{ID: space.Hash(addr), Addr: addr}
		introducer = &n
		break
	}

	intervals := ring.Intervals{
		Stabilize:        cfg.DHT.StabilizeInterval,
		FixFingers:       cfg.DHT.FixFingersInterval,
		CheckPredecessor: cfg.DHT.CheckPredecessorInterval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handle, err := ring.Start(ctx, advertised, introducer, inst, intervals)
	if err != nil {
		lgr.Error("failed to start ring node", logger.F("err", err))
		os.Exit(1)
	}
	lgr.Info("ring node started", logger.F("id", handle.Instance.Self().ID.ToHexString()))

	grpcServer := grpc.NewServer(serverOpts...)
	transport.RegisterRingServer(grpcServer, handle.Instance)

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(lis) }()

	regCtx, regCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := register.Register(regCtx, advertised); err != nil {
		lgr.Warn("failed to register with bootstrap", logger.F("err", err))
	}
	regCancel()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := register.Deregister(ctx, advertised); err != nil {
			lgr.Warn("failed to deregister", logger.F("err", err))
		}
	}()

	select {
	case <-ctx.Done():
		lgr.Info("shutdown signal received, stopping gracefully")
	case err := <-serveErr:
		lgr.Error("gRPC server terminated unexpectedly", logger.F("err", err))
	}

	handle.Stop()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		grpcServer.Stop()
	}
}
