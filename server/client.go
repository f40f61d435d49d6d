package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/valyala/fastjson"

	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/lsp"
)

// WebSocket timeouts following the Gorilla chat example
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024 * 1024

	// Queued responses before a client is considered too slow
	sendBuffer = 16
)

// LiveRequest is a JSON text message on /ws. A message that is not a JSON
// object with a string "query" is treated as raw query text.
type LiveRequest struct {
	ID    string `json:"id,omitempty"`
	Query string `json:"query"`
}

// LiveResponse answers one LiveRequest
type LiveResponse struct {
	ID       string        `json:"id,omitempty"`
	Analysis *lsp.Analysis `json:"analysis"`
}

// Client is one live-parsing WebSocket connection
type Client struct {
	id     string
	server *Server
	conn   *websocket.Conn
	send   chan LiveResponse
	ctx    context.Context
	cancel context.CancelFunc
}

// HandleWebSocket upgrades to a live-parsing session
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("Failed to upgrade WebSocket", logger.FieldError, err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	c := &Client{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan LiveResponse, sendBuffer),
		ctx:    logger.WithComponent(ctx, "ws"),
		cancel: cancel,
	}

	gauge := s.metrics.WebSocketClients.WithLabelValues("ws")
	gauge.Inc()
	s.logger.Infow("Live parse client connected", "client_id", c.id, logger.FieldRemote, clientIP(r))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		defer gauge.Dec()
		c.readPump()
		s.logger.Infow("Live parse client disconnected", "client_id", c.id)
	}()
}

// readPump reads queries and queues their analyses
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var p fastjson.Parser
	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.server.logger.Debugw("WebSocket read error", "client_id", c.id, logger.FieldError, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		req := decodeLiveRequest(&p, message)
		start := time.Now()
		analysis := c.server.service.Analyze(c.ctx, req.Query)
		c.server.metrics.observeParse("ws", analysisOutcome(analysis), len(req.Query), time.Since(start))

		select {
		case c.send <- LiveResponse{ID: req.ID, Analysis: analysis}:
		default:
			c.server.logger.Warnw("Dropping slow live parse client", "client_id", c.id)
			return
		}
	}
}

// writePump sends analyses and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case resp := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(resp); err != nil {
				c.server.logger.Debugw("WebSocket write error", "client_id", c.id, logger.FieldError, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func decodeLiveRequest(p *fastjson.Parser, message []byte) LiveRequest {
	v, err := p.ParseBytes(message)
	if err != nil || v.Type() != fastjson.TypeObject {
		return LiveRequest{Query: string(message)}
	}
	q := v.Get("query")
	if q == nil || q.Type() != fastjson.TypeString {
		return LiveRequest{Query: string(message)}
	}
	text, _ := q.StringBytes()
	return LiveRequest{
		ID:    string(v.GetStringBytes("id")),
		Query: string(text),
	}
}
