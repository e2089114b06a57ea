package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/ballot-registry/internal/app"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/async"
	"github.com/joseph-ayodele/ballot-registry/internal/ingest"
	"github.com/joseph-ayodele/ballot-registry/internal/services/registry"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./ballots.yaml or ~/.ballots/ballots.yaml)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*cfgFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, logger, app.Options{Processing: true})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := os.MkdirAll(cfg.Watch.Dir, 0o755); err != nil {
		logger.Error("failed to create inbox", "dir", cfg.Watch.Dir, "error", err)
		os.Exit(1)
	}

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()

	// Register gRPC health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	// Set the service as serving (empty string means overall server health)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)

	handler := func(ctx context.Context, job async.Job) (int, error) {
		res, err := a.Registry.Ingest(ctx, registry.IngestRequest{Registry: job.Registry, Paths: job.Paths}, nil)
		return len(res.Run.Documents), err
	}
	queue := async.NewBatchQueue(handler, logger,
		async.WithWorkers(cfg.Server.Workers),
		async.WithProcessTimeout(cfg.Server.Timeout),
		async.WithResultHook(func(r async.Result) {
			// the key stays rejected until an operator replaces it
			if errors.Is(r.Err, common.ErrAuthorizationExpired) {
				logger.Error("ballotsd.auth.expired", "batch_id", r.Job.ID, "registry", r.Job.Registry)
				healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			}
		}),
	)

	batches, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Watch.Dir},
		InitialScan: true,
		Debounce:    cfg.Watch.Debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "dir", cfg.Watch.Dir, "error", err)
		os.Exit(1)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case paths, ok := <-batches:
				if !ok {
					return
				}
				job := async.Job{Registry: cfg.Watch.Registry, Paths: paths, TraceID: uuid.New().String()}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("failed to enqueue batch", "files", len(paths), "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					return
				}
				logger.Warn("watcher reported an error", "error", err)
			}
		}
	}()

	logger.Info("ballotsd listening", "addr", cfg.Server.GRPCAddr, "inbox", cfg.Watch.Dir, "registry", cfg.Watch.Registry)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	queue.Shutdown(context.Background())
	grpcServer.GracefulStop()
}
