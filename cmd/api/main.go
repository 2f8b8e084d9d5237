package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/immersivekit/meshgen/internal/cache"
	"github.com/immersivekit/meshgen/internal/config"
	"github.com/immersivekit/meshgen/internal/database"
	"github.com/immersivekit/meshgen/internal/logging"
	"github.com/immersivekit/meshgen/internal/metrics"
	"github.com/immersivekit/meshgen/internal/middleware"
	"github.com/immersivekit/meshgen/internal/prober"
	"github.com/immersivekit/meshgen/internal/queue"
	"github.com/immersivekit/meshgen/internal/storage"
	"github.com/immersivekit/meshgen/internal/tracing"
)

// API wires the HTTP handlers to their backing services.
type API struct {
	repo     *database.Repository
	cache    *cache.Cache
	storage  *storage.Storage
	queue    *queue.Queue
	prober   *prober.Prober
	log      *logging.Logger
	cacheTTL time.Duration
}

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
		tracer, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
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

	api := &API{
		repo:     repo,
		cache:    cacheClient,
		storage:  store,
		queue:    q,
		prober:   prober.New(cfg.Prober),
		log:      log,
		cacheTTL: cfg.Mesh.CacheTTL,
	}

	metricsServer := metrics.NewServer(cfg.Metrics.Port)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	router := setupRouter(api, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Errorf("Metrics server shutdown: %v", err)
	}

	log.Info("Server stopped")
}

func setupRouter(api *API, log *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))

	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		// Assets
		v1.POST("/assets", api.registerAsset)
		v1.GET("/assets", api.listAssets)
		v1.GET("/assets/:id", api.getAsset)
		v1.DELETE("/assets/:id", api.deleteAsset)
		v1.GET("/assets/:id/descriptor", api.getDescriptor)
		v1.GET("/assets/:id/mesh", api.getMesh)

		// Builds
		v1.POST("/assets/:id/builds", api.createBuild)
		v1.GET("/assets/:id/builds", api.getAssetBuilds)
		v1.GET("/builds/:id", api.getBuild)
		v1.GET("/builds/:id/artifact", api.getArtifactURL)
	}

	return router
}
