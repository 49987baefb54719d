package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/llmsim/llmsim/internal/application/usecase"
	"github.com/llmsim/llmsim/internal/domain/models"
	"github.com/llmsim/llmsim/internal/infrastructure/monitoring"
	"github.com/llmsim/llmsim/internal/interfaces/http/handlers"
)

// Server wraps the HTTP listener.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config holds the listener settings.
type Config struct {
	Host string
	Port int
	Mode string // debug, release
}

// NewRouter builds the gin engine with all routes wired. Split out from
// NewServer so tests can drive it through httptest.
func NewRouter(sim *usecase.Simulator, registry *models.Registry, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	chatHandler := handlers.NewChatHandler(sim, logger)
	responsesHandler := handlers.NewResponsesHandler(sim, logger)
	modelsHandler := handlers.NewModelsHandler(registry)
	systemHandler := handlers.NewSystemHandler(sim.Stats())

	setupRoutes(router, chatHandler, responsesHandler, modelsHandler, systemHandler, sim)
	return router
}

// NewServer builds the router and wires all handlers.
func NewServer(cfg Config, sim *usecase.Simulator, registry *models.Registry, logger *zap.Logger) *Server {
	if cfg.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := NewRouter(sim, registry, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return &Server{
		server: server,
		logger: logger,
	}
}

// Start binds the listener and begins serving in a background goroutine.
// Binding happens synchronously so a taken port fails the startup instead
// of just logging from the goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(
	router *gin.Engine,
	chatHandler *handlers.ChatHandler,
	responsesHandler *handlers.ResponsesHandler,
	modelsHandler *handlers.ModelsHandler,
	systemHandler *handlers.SystemHandler,
	sim *usecase.Simulator,
) {
	router.GET("/health", systemHandler.Health)
	router.GET("/llmsim/stats", systemHandler.Stats)
	router.GET("/metrics", gin.WrapH(monitoring.PrometheusHandler(sim.Stats())))

	oai := router.Group("/openai/v1")
	{
		oai.POST("/chat/completions", chatHandler.ChatCompletions)
		oai.POST("/responses", responsesHandler.Responses)
		oai.GET("/models", modelsHandler.List)
		oai.GET("/models/:id", modelsHandler.Get)
	}

	openresp := router.Group("/openresponses/v1")
	{
		openresp.POST("/responses", responsesHandler.OpenResponses)
	}
}

// ginLogger logs each request through zap.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
