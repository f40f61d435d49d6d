package lsp

import (
	"context"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query/parser"
	"github.com/teranos/patql/version"
)

// Handler implements the LSP methods patql supports on top of a Service.
// Each client connection gets its own Handler and document cache.
type Handler struct {
	service   *Service
	documents map[string]string // URI → document content
	mu        sync.RWMutex
	log       *zap.SugaredLogger
}

// NewHandler creates a handler with an empty document cache
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		documents: make(map[string]string),
		log:       logger.ComponentLogger("lsp"),
	}
}

// Protocol returns the glsp dispatch table for this handler
func (h *Handler) Protocol() *protocol.Handler {
	return &protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentHover:              h.TextDocumentHover,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}
}

// ServeStdio runs a language server on stdin/stdout until the client exits
func ServeStdio(service *Service) error {
	h := NewHandler(service)
	srv := glspserver.NewServer(h.Protocol(), ServerName, false)
	h.log.Infow("Serving LSP over stdio")
	if err := srv.RunStdio(); err != nil {
		return errors.Wrap(err, "LSP stdio server failed")
	}
	return nil
}

// ServeWebSocket serves LSP over an upgraded connection. It blocks until the connection closes.
func ServeWebSocket(service *Service, conn *websocket.Conn) {
	h := NewHandler(service)
	srv := glspserver.NewServer(h.Protocol(), ServerName, false)
	h.log.Infow("Serving LSP over WebSocket", logger.FieldRemote, conn.RemoteAddr().String())
	srv.ServeWebSocket(conn)
	h.log.Infow("LSP WebSocket connection closed", logger.FieldRemote, conn.RemoteAddr().String())
}

// Initialize handles LSP initialize request
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	client := "unknown"
	if params.ClientInfo != nil {
		client = params.ClientInfo.Name
	}
	h.log.Infow("LSP client initializing", "client", client)

	legend := make([]string, len(TokenTypes))
	for i, t := range TokenTypes {
		legend[i] = string(t)
	}

	syncKind := protocol.TextDocumentSyncKindFull
	openClose := true
	serverVersion := version.Version
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			HoverProvider: true,
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: &openClose,
				Change:    &syncKind,
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     legend,
					TokenModifiers: []string{},
				},
				Full: true,
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &serverVersion,
		},
	}, nil
}

// Initialized is called after client receives InitializeResult
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.log.Debugw("LSP client initialized")
	return nil
}

// Shutdown handles LSP shutdown request
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.log.Infow("LSP client shutting down")
	return nil
}

// TextDocumentDidOpen caches the document and publishes its diagnostics
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	if _, exists := h.documents[uri]; !exists && len(h.documents) >= maxDocumentsPerClient {
		h.mu.Unlock()
		h.log.Warnw("Document cache limit reached, rejecting new document",
			logger.FieldURI, uri,
			"max_allowed", maxDocumentsPerClient)
		return errors.Newf("document cache limit reached (%d documents open)", maxDocumentsPerClient)
	}
	h.documents[uri] = params.TextDocument.Text
	h.mu.Unlock()

	h.log.Debugw("Document opened", logger.FieldURI, uri, logger.FieldQueryLength, len(params.TextDocument.Text))
	h.publish(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// TextDocumentDidChange replaces the cached document (full sync) and republishes diagnostics
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)

	h.mu.Lock()
	text, ok := h.documents[uri]
	for _, change := range params.ContentChanges {
		if whole, isWhole := change.(protocol.TextDocumentContentChangeEventWhole); isWhole {
			text, ok = whole.Text, true
		}
	}
	if ok {
		h.documents[uri] = text
	}
	h.mu.Unlock()

	if ok {
		h.publish(ctx, params.TextDocument.URI, text)
	}
	return nil
}

// TextDocumentDidClose drops the document and clears its diagnostics
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	delete(h.documents, string(params.TextDocument.URI))
	h.mu.Unlock()

	notify(ctx, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// TextDocumentHover describes the token under the cursor
func (h *Handler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := h.document(params.TextDocument.URI)
	if !ok || text == "" {
		return nil, nil
	}

	analysis := h.service.Analyze(context.Background(), text)
	lines := strings.Split(text, "\n")
	line := int(params.Position.Line)
	character := runeColumn(lineAt(lines, line), int(params.Position.Character))

	tok := analysis.TokenAt(line+1, character)
	if tok == nil || tok.Hover == "" {
		return nil, nil
	}

	r := toProtocolRange(lines, tok.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: tok.Hover,
		},
		Range: &r,
	}, nil
}

// TextDocumentSemanticTokensFull returns highlighting for the whole document
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	text, ok := h.document(params.TextDocument.URI)
	if !ok || text == "" {
		return &protocol.SemanticTokens{Data: []protocol.UInteger{}}, nil
	}

	analysis := h.service.Analyze(context.Background(), text)
	return &protocol.SemanticTokens{Data: EncodeSemanticTokens(text, analysis.Tokens)}, nil
}

func (h *Handler) document(uri protocol.DocumentUri) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	text, ok := h.documents[string(uri)]
	return text, ok
}

func (h *Handler) publish(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	analysis := h.service.Analyze(context.Background(), text)
	notify(ctx, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: ToProtocolDiagnostics(text, analysis.Diagnostics),
	})
	if !analysis.Valid {
		h.log.Debugw("Published diagnostics", logger.FieldURI, string(uri), "count", len(analysis.Diagnostics))
	}
}

func notify(ctx *glsp.Context, params protocol.PublishDiagnosticsParams) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// ToProtocolDiagnostics converts diagnostics to LSP form with UTF-16 columns
func ToProtocolDiagnostics(text string, diags []Diagnostic) []protocol.Diagnostic {
	lines := strings.Split(text, "\n")
	source := "patql"
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		message := d.Message
		if len(d.Suggestions) > 0 {
			message += "\n\nSuggestions:\n• " + strings.Join(d.Suggestions, "\n• ")
		}
		pd := protocol.Diagnostic{
			Range:    toProtocolRange(lines, d.Range),
			Severity: &severity,
			Source:   &source,
			Message:  message,
		}
		if d.Kind != "" {
			pd.Code = &protocol.IntegerOrString{Value: d.Kind}
		}
		out = append(out, pd)
	}
	return out
}

// EncodeSemanticTokens converts tokens to the LSP relative 5-tuple format
// (deltaLine, deltaStart, length, tokenType, tokenModifiers). Tokens spanning
// lines are clipped to their first line.
func EncodeSemanticTokens(text string, tokens []SemanticToken) []protocol.UInteger {
	lines := strings.Split(text, "\n")
	data := make([]protocol.UInteger, 0, len(tokens)*5)
	var prevLine, prevChar uint32

	for _, tok := range tokens {
		start := toProtocolPosition(lines, tok.Range.Start)
		var end protocol.Position
		if tok.Range.End.Line == tok.Range.Start.Line {
			end = toProtocolPosition(lines, tok.Range.End)
		} else {
			line := lineAt(lines, tok.Range.Start.Line-1)
			end = protocol.Position{Line: start.Line, Character: utf16Column(line, utf8.RuneCountInString(line))}
		}
		length := end.Character - start.Character
		if length == 0 {
			continue
		}

		deltaLine := start.Line - prevLine
		deltaStart := start.Character
		if deltaLine == 0 {
			deltaStart = start.Character - prevChar
		}
		data = append(data, deltaLine, deltaStart, length, tokenTypeIndex(tok.Type), 0)
		prevLine, prevChar = start.Line, start.Character
	}
	return data
}

func toProtocolRange(lines []string, r parser.Range) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(lines, r.Start),
		End:   toProtocolPosition(lines, r.End),
	}
}

// toProtocolPosition converts a 1-based line, rune column position to LSP's
// 0-based line, UTF-16 column form.
func toProtocolPosition(lines []string, p parser.Position) protocol.Position {
	line := max(p.Line-1, 0)
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: utf16Column(lineAt(lines, line), p.Character),
	}
}

func lineAt(lines []string, i int) string {
	if i < 0 || i >= len(lines) {
		return ""
	}
	return lines[i]
}

// utf16Column counts the UTF-16 code units in the first runes runes of line
func utf16Column(line string, runes int) protocol.UInteger {
	units := 0
	for _, r := range line {
		if runes == 0 {
			break
		}
		units += utf16.RuneLen(r)
		runes--
	}
	return protocol.UInteger(units + runes)
}

// runeColumn converts a UTF-16 column on line back to a rune column
func runeColumn(line string, units int) int {
	runes := 0
	for _, r := range line {
		if units <= 0 {
			return runes
		}
		units -= utf16.RuneLen(r)
		runes++
	}
	return runes + max(units, 0)
}
