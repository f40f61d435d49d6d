// Package server exposes the query parser over HTTP and WebSocket.
//
// Routes:
//
//	POST /api/parse    parse a query, return its tree
//	POST /api/tokens   tokenize a query
//	POST /api/analyze  tokens, diagnostics and tree in one response
//	GET  /ws           live parsing: one analysis per text message
//	GET  /lsp          Language Server Protocol over WebSocket
//	GET  /health       liveness and active limits
//	GET  /metrics      Prometheus metrics
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/lsp"
	"github.com/teranos/patql/query"
)

// Server serves query parsing to many concurrent clients. The parser core is
// stateless, so handlers share nothing but the limits snapshot held by service.
type Server struct {
	cfg      am.ServerConfig
	service  *lsp.Service
	limiter  *clientLimiter
	metrics  *Metrics
	logger   *zap.SugaredLogger
	parsers  fastjson.ParserPool
	upgrader websocket.Upgrader
	handler  http.Handler

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	httpServer *http.Server
}

// New creates a server from configuration. Call Close (or let
// ListenAndServe return) to stop its background goroutines.
func New(cfg *am.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg.Server,
		service: lsp.NewService(cfg.Limits()),
		limiter: newClientLimiter(cfg.Server.RateLimit),
		metrics: NewMetrics(),
		logger:  logger.ComponentLogger("server"),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	s.handler = s.routes()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.limiter.cleanupLoop(s.ctx, time.Minute)
	}()
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetLimits swaps parser limits for subsequent requests
func (s *Server) SetLimits(limits query.Limits) {
	s.service.SetLimits(limits)
	s.logger.Infow("Parser limits updated",
		"max_input_bytes", limits.MaxInputBytes,
		"max_depth", limits.MaxDepth)
}

// Limits returns the parser limits currently in effect
func (s *Server) Limits() query.Limits {
	return s.service.Limits()
}

// Metrics exposes the server's Prometheus collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Close stops background goroutines. It does not close an active listener;
// cancel the context passed to ListenAndServe for that.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}
