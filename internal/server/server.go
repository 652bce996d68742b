package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/freshfold/freshfold-orders-service/internal/config"
	"github.com/freshfold/freshfold-orders-service/internal/handlers"
	"github.com/freshfold/freshfold-orders-service/internal/metrics"
	"github.com/freshfold/freshfold-orders-service/internal/middleware"
)

// Server wraps the HTTP server and route setup.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	httpSrv  *http.Server
	logger   zerolog.Logger
}

// NewServer builds the router and wires all routes.
func NewServer(cfg *config.Config, h *handlers.Handlers, logger zerolog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logger.With().Str("component", "server").Logger(),
	}

	s.setupRoutes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.Auth(s.config.Auth.JWTSecret))
	{
		v1.POST("/pricing/quote", s.handlers.QuoteOrderPrice)
		v1.POST("/checkout", s.handlers.Checkout)
		v1.POST("/checkout/confirm", s.handlers.ConfirmPayment)
		v1.GET("/orders", s.handlers.ListOrders)
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("starting server")
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")
	return s.httpSrv.Shutdown(ctx)
}
