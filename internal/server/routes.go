// Package server wires HTTP handlers into a ServeMux for the chat relay
// via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for health check, WebSocket endpoint, metrics, and test page.
func SetupRoutes(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	mux.HandleFunc("/test", TestPageHandler)
	mux.Handle("/metrics", s.MetricsHandler())
	return mux
}
