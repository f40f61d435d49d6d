package server

import (
	"net/http"

	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/lsp"
)

// HandleLSPWebSocket upgrades HTTP to WebSocket and serves LSP on it
func (s *Server) HandleLSPWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("Failed to upgrade LSP WebSocket", logger.FieldError, err)
		return
	}

	gauge := s.metrics.WebSocketClients.WithLabelValues("lsp")
	gauge.Inc()
	defer gauge.Dec()

	// Blocks until the connection closes
	lsp.ServeWebSocket(s.service, conn)
}
