package server

import (
	"net/http"
	"time"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/lsp"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
	"github.com/teranos/patql/query/parser"
	"github.com/teranos/patql/version"
)

// ParseResponse is returned by POST /api/parse
type ParseResponse struct {
	Tree       *ast.Node `json:"tree"`
	SExpr      string    `json:"sexpr"`
	Normalized string    `json:"normalized"`
}

// TokenResponse is one token in a POST /api/tokens response
type TokenResponse struct {
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	Op         string `json:"op,omitempty"`
	N          *int   `json:"n,omitempty"`
	Terminated *bool  `json:"terminated,omitempty"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
	Limits  query.Limits `json:"limits"`
}

// HandleParse parses one query and returns its tree
func (s *Server) HandleParse(w http.ResponseWriter, r *http.Request) {
	req, err := s.readQuery(w, r)
	if err != nil {
		s.metrics.Parses.WithLabelValues("parse", outcomeBadRequest).Inc()
		writeRequestError(w, err)
		return
	}

	start := time.Now()
	clause, err := query.Parse(req.Query, query.WithLimits(s.Limits()))
	s.metrics.observeParse("parse", outcomeOf(err), len(req.Query), time.Since(start))

	log := logger.LoggerFromContext(r.Context())
	if err != nil {
		log.Debugw("Query rejected",
			logger.FieldQueryLength, len(req.Query),
			logger.FieldErrorKind, outcomeOf(err),
			logger.FieldError, err)
		writeParseError(w, err)
		return
	}

	log.Debugw("Query parsed", logger.FieldQueryLength, len(req.Query), logger.FieldOutcome, outcomeOK)
	_ = writeJSON(w, http.StatusOK, ParseResponse{
		Tree:       ast.Encode(clause),
		SExpr:      ast.Print(clause),
		Normalized: ast.Format(clause),
	})
}

// HandleTokens returns the lexer's token stream. Tokenizing never fails,
// but the input size limit still applies.
func (s *Server) HandleTokens(w http.ResponseWriter, r *http.Request) {
	req, err := s.readQuery(w, r)
	if err != nil {
		s.metrics.Parses.WithLabelValues("tokens", outcomeBadRequest).Inc()
		writeRequestError(w, err)
		return
	}

	if err := query.CheckSize(req.Query, query.WithLimits(s.Limits())); err != nil {
		s.metrics.Parses.WithLabelValues("tokens", outcomeResourceLimit).Inc()
		writeParseError(w, err)
		return
	}

	start := time.Now()
	tokens := lexer.Tokenize(req.Query)
	s.metrics.observeParse("tokens", outcomeOK, len(req.Query), time.Since(start))

	out := make([]TokenResponse, len(tokens))
	for i, tok := range tokens {
		out[i] = tokenResponse(tok)
	}
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": out})
}

// HandleAnalyze returns tokens, diagnostics and, when valid, the tree.
// Parse failures are reported as diagnostics with status 200.
func (s *Server) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.readQuery(w, r)
	if err != nil {
		s.metrics.Parses.WithLabelValues("analyze", outcomeBadRequest).Inc()
		writeRequestError(w, err)
		return
	}

	start := time.Now()
	analysis := s.service.Analyze(r.Context(), req.Query)
	s.metrics.observeParse("analyze", analysisOutcome(analysis), len(req.Query), time.Since(start))

	_ = writeJSON(w, http.StatusOK, analysis)
}

// HandleHealth reports liveness and the limits in effect
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.Get(),
		Limits:  s.Limits(),
	})
}

func tokenResponse(tok lexer.Token) TokenResponse {
	out := TokenResponse{
		Kind:  tok.Kind.String(),
		Text:  tok.Text,
		Start: tok.Pos,
		End:   tok.End,
	}
	switch tok.Kind {
	case lexer.Keyword, lexer.Symbol:
		out.Op = tok.Op.String()
	case lexer.ProximityDistance, lexer.FuzzyDistance:
		out.N = ast.Ptr(tok.N)
	case lexer.Quoted:
		out.Terminated = ast.Ptr(tok.Terminated)
	}
	return out
}

// outcomeOf classifies a parse error for metrics and logs
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.IsResourceLimitError(err):
		return outcomeResourceLimit
	default:
		return outcomeStructural
	}
}

func analysisOutcome(a *lsp.Analysis) string {
	if a.Valid {
		return outcomeOK
	}
	for _, d := range a.Diagnostics {
		if d.Kind == string(parser.ErrorKindResourceLimit) {
			return outcomeResourceLimit
		}
	}
	return outcomeStructural
}
