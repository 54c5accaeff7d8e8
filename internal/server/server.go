package server

import (
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tyrowin/exchange-chat/internal/config"
)

// Server bundles the hub, router and upgrade settings behind the HTTP handlers.
type Server struct {
	cfg      config.ServerConfig
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// New creates a Server. gatherer backs the /metrics endpoint; nil selects
// the Prometheus default gatherer.
func New(cfg config.ServerConfig, hub *Hub, router *Router, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := newOriginPolicy(cfg.AllowedOrigins, logger)
	return &Server{
		cfg:    cfg,
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		gatherer: gatherer,
		logger:   logger,
	}
}

