package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/rpchub/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/dispatch"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/registry"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/domain/synchronizer"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/services/configuration"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/services/discovery"
	"github.com/GriffinCanCode/AgentOS/rpchub/internal/shared/utils"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router       *gin.Engine
	registry     *registry.Registry
	synchronizer *synchronizer.Synchronizer
	settings     *configuration.Store
	tracer       *tracing.Tracer
	logger       *logging.Logger
	config       *config.Config
	metrics      *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing RPC service hub",
		zap.String("port", cfg.Server.Port),
		zap.String("hash", cfg.Registry.HashAlgorithm),
		zap.String("manifest", cfg.Registry.ManifestPath),
	)

	// Each server owns its metric registry so several can coexist in one process
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetricsWith(promRegistry)

	algorithm, err := utils.ParseAlgorithm(cfg.Registry.HashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid registry hash: %w", err)
	}

	// Registry with the synchronizer as its parent hook
	reg := registry.New(logger.Component("registry"), utils.NewHasher(algorithm)).WithMetrics(metrics)
	syncer := synchronizer.New(reg, cfg.Sync.PushesPerSecond, cfg.Sync.Burst, logger.Component("sync")).
		WithMetrics(metrics)
	reg.WithParent(syncer)

	var m *manifest.Manifest
	if cfg.Registry.ManifestPath != "" {
		m, err = manifest.Load(cfg.Registry.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
	}

	// Built-in services
	var defaults map[string]interface{}
	if m != nil {
		defaults = m.Configuration
	}
	settings := configuration.NewStore(defaults, reg)
	if _, err := reg.RegisterObject(discovery.New(reg).Record()); err != nil {
		return nil, fmt.Errorf("failed to register discovery service: %w", err)
	}
	if _, err := reg.RegisterObject(settings.Record()); err != nil {
		return nil, fmt.Errorf("failed to register configuration service: %w", err)
	}

	if m != nil {
		loaded, failed := manifest.NewSeeder(reg, logger.Component("manifest")).Seed(m)
		logger.Info("Loaded service manifest", zap.Int("loaded", loaded), zap.Int("failed", failed))
	}

	tracer := tracing.New("rpchub", logger.Component("trace"))

	dispatcher := dispatch.New(reg, logger.Component("dispatch")).WithMetrics(metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	router.Use(middleware.CORS(corsConfig))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	http.NewHandlers(reg, dispatcher, logger.Component("http")).Register(router)

	wsHandler := ws.NewHandler(dispatcher, reg, syncer, logger.Component("ws")).WithMetrics(metrics)
	router.GET("/ws", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully", zap.Int("services", reg.Len()))

	return &Server{
		router:       router,
		registry:     reg,
		synchronizer: syncer,
		settings:     settings,
		tracer:       tracer,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
	}, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Registry returns the service registry
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Settings returns the configuration service store
func (s *Server) Settings() *configuration.Store {
	return s.settings
}

// Run serves HTTP and pushes registry snapshots until ctx is done, then
// shuts the listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	go func() {
		if err := s.synchronizer.Run(syncCtx); err != nil {
			s.logger.Error("Registry synchronizer failed", zap.Error(err))
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close flushes buffered logs
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
