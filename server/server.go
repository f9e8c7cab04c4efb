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

	"light-chat/auth"
	"light-chat/llm"
	"light-chat/utils"
)

// Config configures the gateway
type Config struct {
	Addr        string
	CORSOrigins []string
	Version     string
}

// Server is the stateless chat gateway. It keeps no conversation state.
type Server struct {
	config   Config
	provider llm.Provider
	auth     auth.Authenticator
	logger   *utils.Logger
	metrics  *metrics
	engine   *gin.Engine
}

// New wires routes and middleware
func New(config Config, provider llm.Provider, authenticator auth.Authenticator, logger *utils.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if logger == nil {
		logger = utils.NopLogger()
	}

	s := &Server{
		config:   config,
		provider: provider,
		auth:     authenticator,
		logger:   logger,
		metrics:  newMetrics(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger.Zerolog()))
	engine.Use(instrument(s.metrics))
	if c, ok := corsMiddleware(config.CORSOrigins); ok {
		engine.Use(c)
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/login", s.handleLogin)

	s.engine = engine
	return s
}

func corsMiddleware(origins []string) (gin.HandlerFunc, bool) {
	if len(origins) == 0 {
		return nil, false
	}
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg), true
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	utils.SafeGoWithError(s.logger, "gateway listener", func() error {
		s.logger.Info("Gateway listening on %s", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(err error) { errCh <- err })

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down gateway")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
