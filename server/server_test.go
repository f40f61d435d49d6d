package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"github.com/teranos/patql/am"
	"github.com/teranos/patql/query"
)

func testConfig() *am.Config {
	cfg := am.Default()
	cfg.Server.RateLimit.RequestsPerSecond = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *am.Config) (*Server, *httptest.Server) {
	t.Helper()
	s := New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandleParse(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts, "/api/parse", `{"query": "banana ADJ15 tree.TI"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decode[ParseResponse](t, resp)
	assert.Equal(t, "(ADJ/15 banana (term tree :field TI))", body.SExpr)
	assert.Equal(t, "banana ADJ15 tree.TI", body.Normalized)
	require.NotNil(t, body.Tree)
	assert.Equal(t, "binary", body.Tree.Type)
	assert.Equal(t, "ADJ", body.Tree.Op)
	require.NotNil(t, body.Tree.Distance)
	assert.Equal(t, 15, *body.Tree.Distance)
}

func TestHandleParse_UnicodeEscapes(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts, "/api/parse", `{"query": "café OR \"crème brûlée\""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[ParseResponse](t, resp)
	assert.Equal(t, `(OR café "crème brûlée")`, body.SExpr)
}

func TestHandleParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		kind   string
		errMsg string
	}{
		{"structural", `{"query": "banana AND"}`, http.StatusUnprocessableEntity, "structural", "operator AND is missing its right operand"},
		{"empty", `{"query": ""}`, http.StatusUnprocessableEntity, "structural", "query is empty"},
		{"unclosed", `{"query": "(banana"}`, http.StatusUnprocessableEntity, "structural", "unclosed parenthesis"},
		{"invalid json", `{"query": `, http.StatusBadRequest, "", "invalid JSON"},
		{"not an object", `["banana"]`, http.StatusBadRequest, "", "must be a JSON object"},
		{"missing query", `{"q": "banana"}`, http.StatusBadRequest, "", `"query" must be a string`},
		{"query not a string", `{"query": 7}`, http.StatusBadRequest, "", `"query" must be a string`},
	}

	_, ts := newTestServer(t, testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, "/api/parse", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode[errorResponse](t, resp)
			assert.Contains(t, body.Error, tt.errMsg)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.RequestID)
			if tt.kind != "" {
				assert.NotNil(t, body.Range)
			}
		})
	}
}

func TestHandleParse_StructuralRange(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts, "/api/parse", `{"query": "banana AND"}`)
	body := decode[errorResponse](t, resp)
	require.NotNil(t, body.Range)
	assert.Equal(t, 7, body.Range.Start.Offset)
	assert.Equal(t, 10, body.Range.End.Offset)
	assert.Equal(t, "AND", body.Token)
	assert.NotEmpty(t, body.Suggestions)
}

func TestHandleParse_ResourceLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Parser.MaxInputBytes = 10
	cfg.Parser.MaxDepth = 2
	_, ts := newTestServer(t, cfg)

	resp := post(t, ts, "/api/parse", `{"query": "banana OR apple OR pear"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "resource_limit", decode[errorResponse](t, resp).Kind)

	resp = post(t, ts, "/api/parse", `{"query": "(((a)))"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = post(t, ts, "/api/parse", `{"query": "`+strings.Repeat("a", 2000)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, "bodies far beyond the limit are cut off")
}

func TestHandleParse_MethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	resp, err := http.Get(ts.URL + "/api/parse")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleTokens(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts, "/api/tokens", `{"query": "a NEAR3 \"b c\"~2 #x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Tokens []TokenResponse `json:"tokens"`
	}](t, resp)

	kinds := make([]string, len(body.Tokens))
	for i, tok := range body.Tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []string{"Word", "Keyword", "ProximityDistance", "Quoted", "FuzzyDistance", "EndOfInput"}, kinds)
	assert.Equal(t, "NEAR", body.Tokens[1].Op)
	require.NotNil(t, body.Tokens[2].N)
	assert.Equal(t, 3, *body.Tokens[2].N)
	require.NotNil(t, body.Tokens[3].Terminated)
	assert.True(t, *body.Tokens[3].Terminated)
	assert.Equal(t, "x", body.Tokens[5].Text)
}

func TestHandleTokens_SizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Parser.MaxInputBytes = 4
	_, ts := newTestServer(t, cfg)

	resp := post(t, ts, "/api/tokens", `{"query": "banana"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHandleAnalyze(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp := post(t, ts, "/api/analyze", `{"query": "banana AND"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Valid       bool `json:"valid"`
		Diagnostics []struct {
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"diagnostics"`
		Tokens []json.RawMessage `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Valid)
	require.Len(t, body.Diagnostics, 1)
	assert.Equal(t, "error", body.Diagnostics[0].Severity)
	assert.NotEmpty(t, body.Tokens)
}

func TestHandleHealth(t *testing.T) {
	s, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, query.DefaultLimits(), body.Limits)

	s.SetLimits(query.Limits{MaxInputBytes: 99, MaxDepth: 9})
	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, query.Limits{MaxInputBytes: 99, MaxDepth: 9}, decode[HealthResponse](t, resp2).Limits)
}

func TestMetrics(t *testing.T) {
	s, ts := newTestServer(t, testConfig())

	post(t, ts, "/api/parse", `{"query": "a OR b"}`)
	post(t, ts, "/api/parse", `{"query": "a OR"}`)
	post(t, ts, "/api/parse", `nope`)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().Parses.WithLabelValues("parse", outcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().Parses.WithLabelValues("parse", outcomeStructural)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().Parses.WithLabelValues("parse", outcomeBadRequest)))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `patql_parses_total{endpoint="parse",outcome="ok"} 1`)
	assert.Contains(t, string(text), "patql_parse_duration_seconds_bucket")
}

func TestRequestID(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Len(t, resp.Header.Get(headerRequestID), 36, "a UUID is assigned")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc-123", resp2.Header.Get(headerRequestID))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit.RequestsPerSecond = 0.001
	cfg.Server.RateLimit.Burst = 2
	s, ts := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, post(t, ts, "/api/parse", `{"query": "a"}`).StatusCode)
	}
	resp := post(t, ts, "/api/parse", `{"query": "a"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().RateLimited))

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is exempt")
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://app.example"}
	_, ts := newTestServer(t, cfg)

	tests := []struct {
		origin string
		allow  string
	}{
		{"https://app.example", "https://app.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/parse", strings.NewReader(`{"query": "a"}`))
		require.NoError(t, err)
		req.Header.Set("Origin", tt.origin)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.allow, resp.Header.Get("Access-Control-Allow-Origin"), tt.origin)
	}
}

func TestGzip(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	big := strings.Repeat("banana ", 400)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/tokens", strings.NewReader(`{"query": "`+big+`"}`))
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	cfg := testConfig()
	cfg.Server.Gzip = false
	_, plain := newTestServer(t, cfg)
	req, err = http.NewRequest(http.MethodPost, plain.URL+"/api/tokens", strings.NewReader(`{"query": "`+big+`"}`))
	require.NoError(t, err)
	req.Header.Set("Accept-Encoding", "gzip")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Content-Encoding"))
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), am.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("[parser]\nmax_depth = 5\n"), 0644))

	s, _ := newTestServer(t, testConfig())
	w, err := am.NewConfigWatcher(path, func() (*am.Config, error) { return am.LoadFromFile(path) })
	require.NoError(t, err)
	w.SetDebouncePeriod(10 * time.Millisecond)
	s.WatchConfig(w)
	w.Start()
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("[parser]\nmax_depth = 7\n"), 0644))
	assert.Eventually(t, func() bool { return s.Limits().MaxDepth == 7 }, 5*time.Second, 20*time.Millisecond)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := New(testConfig())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:-1"
	s := New(cfg)
	defer s.Close()
	err := s.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestWebSocketLiveParse(t *testing.T) {
	s, ts := newTestServer(t, testConfig())

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id": "q1", "query": "a AND b"}`)))
	var first LiveResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "q1", first.ID)
	require.NotNil(t, first.Analysis)
	assert.True(t, first.Analysis.Valid)
	assert.Equal(t, "a AND b", first.Analysis.Normalized)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("banana AND")))
	var second LiveResponse
	require.NoError(t, conn.ReadJSON(&second))
	assert.Empty(t, second.ID)
	assert.False(t, second.Analysis.Valid)
	require.Len(t, second.Analysis.Diagnostics, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.Metrics().WebSocketClients.WithLabelValues("ws")))
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowedOrigins = []string{"https://app.example"}
	_, ts := newTestServer(t, cfg)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDecodeLiveRequest(t *testing.T) {
	tests := []struct {
		message string
		want    LiveRequest
	}{
		{`{"id": "7", "query": "a OR b"}`, LiveRequest{ID: "7", Query: "a OR b"}},
		{`{"query": "x"}`, LiveRequest{Query: "x"}},
		{`banana AND`, LiveRequest{Query: "banana AND"}},
		{`{"query": 5}`, LiveRequest{Query: `{"query": 5}`}},
		{`"quoted"`, LiveRequest{Query: `"quoted"`}},
	}
	for _, tt := range tests {
		var p fastjson.Parser
		assert.Equal(t, tt.want, decodeLiveRequest(&p, []byte(tt.message)), tt.message)
	}
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, originAllowed("http://localhost:5173", nil))
	assert.False(t, originAllowed("https://example.org", nil))
	assert.True(t, originAllowed("https://example.org", []string{"*"}))
	assert.True(t, originAllowed("https://app.example:8443", []string{"https://app.example"}))
}
