package server

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
)

const headerRequestID = "X-Request-ID"

// routes builds the mux and wraps it in the middleware chain:
// request ID → access log → CORS → rate limit → route (gzip on /api only)
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	api := func(h http.HandlerFunc) http.Handler {
		if s.cfg.Gzip {
			return gzhttp.GzipHandler(h)
		}
		return h
	}
	mux.Handle("POST /api/parse", api(s.HandleParse))
	mux.Handle("POST /api/tokens", api(s.HandleTokens))
	mux.Handle("POST /api/analyze", api(s.HandleAnalyze))
	mux.HandleFunc("GET /ws", s.HandleWebSocket)
	mux.HandleFunc("GET /lsp", s.HandleLSPWebSocket)
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	corsMiddleware := cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			return originAllowed(origin, s.cfg.AllowedOrigins)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerRequestID},
		ExposedHeaders: []string{headerRequestID},
	})

	var h http.Handler = mux
	h = s.rateLimitMiddleware(h)
	h = corsMiddleware.Handler(h)
	h = s.logMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// requestIDMiddleware reuses an incoming X-Request-ID or assigns a new one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware rejects clients over their token bucket with 429.
// Health and metrics are exempt so probes keep working under load.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.allow(clientIP(r)) {
			s.metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logMiddleware logs every request once it completes
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := append(logger.FieldsFromContext(r.Context()),
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, rec.status,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
			logger.FieldRemote, clientIP(r),
		)
		if rec.status >= http.StatusInternalServerError {
			s.logger.Errorw("HTTP request failed", fields...)
			return
		}
		s.logger.Debugw("HTTP request", fields...)
	})
}

// statusRecorder captures the response status. It forwards Hijack and
// Flush so WebSocket upgrades and streaming still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
