// Package mcp exposes the query parser to Model Context Protocol clients
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teranos/patql/errors"
	"github.com/teranos/patql/logger"
	"github.com/teranos/patql/query"
	"github.com/teranos/patql/query/ast"
	"github.com/teranos/patql/query/lexer"
	"github.com/teranos/patql/query/parser"
	"github.com/teranos/patql/version"
)

// ServerName identifies the tool server to MCP clients
const ServerName = "patql"

// Output formats accepted by parse_query
const (
	FormatSExpr      = "sexpr"
	FormatJSON       = "json"
	FormatNormalized = "normalized"
)

// Server registers the parser tools on an MCP server
type Server struct {
	limits query.Limits
	server *server.MCPServer
}

// NewServer creates a tool server that parses with the given limits
func NewServer(limits query.Limits) *Server {
	s := &Server{
		limits: limits,
		server: server.NewMCPServer(
			ServerName,
			version.Version,
			server.WithToolCapabilities(true),
		),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	parseTool := mcp.NewTool("parse_query",
		mcp.WithDescription("Parse a patent search query (boolean, proximity, field and fuzzy syntax) into its syntax tree"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text, e.g. banana ADJ15 tree monkey.ATT"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: sexpr (default), json or normalized"),
			mcp.Enum(FormatSExpr, FormatJSON, FormatNormalized),
		),
	)
	s.server.AddTool(parseTool, s.handleParse)

	tokenizeTool := mcp.NewTool("tokenize_query",
		mcp.WithDescription("Split a patent search query into lexer tokens with byte offsets"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text"),
		),
	)
	s.server.AddTool(tokenizeTool, s.handleTokenize)
}

// handleParse handles parse_query tool calls
func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := request.GetString("format", FormatSExpr)

	clause, err := query.Parse(text, query.WithLimits(s.limits))
	if err != nil {
		logger.Debugw("parse_query rejected", logger.FieldTool, "parse_query", logger.FieldError, err)
		return mcp.NewToolResultError(describeError(text, err)), nil
	}

	switch format {
	case FormatSExpr:
		return mcp.NewToolResultText(ast.Print(clause)), nil
	case FormatNormalized:
		return mcp.NewToolResultText(ast.Format(clause)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(ast.Encode(clause), "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode tree")
		}
		return mcp.NewToolResultText(string(data)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q (want sexpr, json or normalized)", format)), nil
	}
}

// handleTokenize handles tokenize_query tool calls
func (s *Server) handleTokenize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := query.CheckSize(text, query.WithLimits(s.limits)); err != nil {
		return mcp.NewToolResultError(describeError(text, err)), nil
	}

	var b strings.Builder
	for _, tok := range lexer.Tokenize(text) {
		fmt.Fprintf(&b, "%d-%d\t%s\n", tok.Pos, tok.End, tok)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// describeError renders a parse failure with the offending line marked
func describeError(text string, err error) string {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	msg := pe.Error()
	if caret := pe.Caret(text); caret != "" {
		msg = caret + "\n" + msg
	}
	return msg
}

// Serve runs the tool server on stdin/stdout until the client disconnects
func (s *Server) Serve() error {
	return server.ServeStdio(s.server)
}
