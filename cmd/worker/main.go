package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/immersivekit/meshgen/internal/cache"
	"github.com/immersivekit/meshgen/internal/config"
	"github.com/immersivekit/meshgen/internal/database"
	"github.com/immersivekit/meshgen/internal/geometry"
	"github.com/immersivekit/meshgen/internal/logging"
	"github.com/immersivekit/meshgen/internal/metrics"
	"github.com/immersivekit/meshgen/internal/pipeline"
	"github.com/immersivekit/meshgen/internal/prober"
	"github.com/immersivekit/meshgen/internal/queue"
	"github.com/immersivekit/meshgen/internal/storage"
	"github.com/immersivekit/meshgen/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		tracer, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName+"-worker", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
		opentracing.SetGlobalTracer(tracer)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	cacheClient, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	defer cacheClient.Close()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	builder := &geometry.Builder{
		SphereRadius:   float32(cfg.Mesh.SphereRadius),
		VerticalSlices: cfg.Mesh.VerticalSlices,
		ViewDistance:   float32(cfg.Mesh.ViewDistance),
	}

	svc := pipeline.NewService(repo, store, cacheClient, prober.New(cfg.Prober),
		builder, log, cfg.Mesh.CacheTTL)

	metricsServer := metrics.NewServer(cfg.Metrics.Port)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down worker gracefully...")
		cancel()
	}()

	// One build in flight at a time; the queue prefetch is 1.
	jobHandler := func(job queue.BuildJob) error {
		log.WithBuildID(job.BuildID).WithAssetID(job.AssetID).Info("Processing build")
		reportQueueDepth(q, 1)

		err := svc.ProcessBuild(ctx, job)
		reportQueueDepth(q, 0)

		if err != nil {
			log.WithBuildID(job.BuildID).ErrorWithErr("Failed to process build", err)
			return err
		}
		log.WithBuildID(job.BuildID).Info("Build processed")
		return nil
	}

	go pollQueueDepth(ctx, q)

	log.Info("Worker started, waiting for builds...")
	if err := q.ConsumeBuilds(ctx, jobHandler); err != nil {
		log.Fatalf("Failed to consume builds: %v", err)
	}

	<-ctx.Done()
	log.Info("Worker stopped")
}

func reportQueueDepth(q *queue.Queue, inFlight int) {
	depth, err := q.GetQueueDepth()
	if err != nil {
		return
	}
	metrics.UpdateBuildMetrics(inFlight, depth)
}

func pollQueueDepth(ctx context.Context, q *queue.Queue) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := q.GetQueueDepth()
			if err != nil {
				continue
			}
			metrics.BuildsQueueDepth.Set(float64(depth))
		}
	}
}
