package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/handlers"
	"github.com/victoralfred/retail_analytics/internal/logging"
	"github.com/victoralfred/retail_analytics/internal/metrics"
	"github.com/victoralfred/retail_analytics/internal/middleware"
)

// Server interface
type Server interface {
	Setup()
	Start(ctx context.Context) error
	Router() *gin.Engine
}

// HTTPServer implements the Server interface
type HTTPServer struct {
	router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	services *Services
}

// Services holds the handlers and collectors behind the routes
type Services struct {
	AnalyticsHandler *handlers.AnalyticsHandler
	DocsHandler      *handlers.DocsHandler
	Metrics          *metrics.Metrics

	// Pending reports the requests waiting on the worker context
	Pending func() int
}

// New creates a new server instance
func New(cfg *config.Config, svcs *Services, logger *zap.Logger) *HTTPServer {
	if svcs == nil {
		svcs = &Services{}
	}
	return &HTTPServer{
		config:   cfg,
		services: svcs,
		logger:   logger,
	}
}

// Setup initializes the server
func (s *HTTPServer) Setup() {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
}

// Router returns the gin router
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}

func (s *HTTPServer) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(logging.HTTPLoggingMiddleware(s.logger, s.config.Log.SlowRequestThreshold))

	methods := s.config.CORS.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "OPTIONS"}
	}
	headers := s.config.CORS.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, handlers.CacheKeyHeader}
	}
	maxAge := s.config.CORS.MaxAge
	if maxAge == 0 {
		maxAge = 12 * time.Hour
	}
	origins := s.config.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: s.config.CORS.AllowCredentials,
		MaxAge:           maxAge,
	}))
}

func (s *HTTPServer) setupRoutes() {
	if s.config.Metrics.Enabled && s.services.Metrics != nil {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		s.router.GET(path, gin.WrapH(promhttp.HandlerFor(s.services.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/v1")
	v1.GET("/health", s.healthCheck)
	v1.GET("/info", s.apiInfo)

	if s.services.DocsHandler != nil {
		v1.GET("/docs/swagger.json", s.services.DocsHandler.GetSwaggerJSON)
		v1.GET("/docs", s.services.DocsHandler.GetSwaggerUI)
	}

	// Only the computation routes are rate limited
	api := v1.Group("/analytics")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Global: s.config.RateLimit.Global,
		PerIP:  s.config.RateLimit.PerIP,
		Burst:  s.config.RateLimit.Burst,
	}))
	if h := s.services.AnalyticsHandler; h != nil {
		api.GET("/operations", h.ListOperations)
		api.POST("/dashboard", h.Dashboard)
		api.POST("/:operation", h.RunOperation)
	} else {
		api.Any("/*path", s.notImplemented)
	}
}

func (s *HTTPServer) healthCheck(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.config.StartTime).Seconds(),
		"transport": s.config.Engine.Transport,
	}
	if s.services.Pending != nil {
		resp["pending_requests"] = s.services.Pending()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":       s.config.Version,
		"environment":   s.config.Environment,
		"documentation": s.config.DocsURL,
		"support":       s.config.SupportEmail,
		"status_page":   s.config.StatusPageURL,
		"operations":    analytics.AllOperations(),
	})
}

func (s *HTTPServer) notImplemented(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ENGINE_UNAVAILABLE",
			"message": "The analytics engine is not configured",
		},
	})
}

// Start serves until ctx is done, then shuts down gracefully
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", s.config.Port),
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   s.config.Engine.RequestTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server",
			zap.Int("port", s.config.Port),
			zap.String("environment", s.config.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("Server exited")
	return nil
}
