package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ironsheep/plateguard/internal/history"
	"github.com/ironsheep/plateguard/internal/ocr"
	"github.com/ironsheep/plateguard/internal/pipeline"
)

// FileProcessor processes still images and video files.
// *pipeline.Pipeline implements it.
type FileProcessor interface {
	ProcessImage(ctx context.Context, inputPath, outputPath string) ([]string, error)
	ProcessVideo(ctx context.Context, inputPath, outputPath string) ([]string, error)
}

// LiveSource is the live capture session. *pipeline.Camera implements it.
type LiveSource interface {
	Start() error
	NextFrame(ctx context.Context) (pipeline.Snapshot, bool)
	Stop() error
	Running() bool
	Plates() []string
	SnapshotPath() string
}

// Config wires a Server to the rest of the application.
type Config struct {
	Files   FileProcessor
	Live    LiveSource // nil disables the plate_live_* tools
	History history.Recorder
	OCR     ocr.Info

	// User is recorded on runs whose tool call names no user.
	User string

	Version string
}

// Server handles MCP protocol communication
type Server struct {
	files   FileProcessor
	live    LiveSource
	history history.Recorder
	ocr     ocr.Info
	user    string
	version string
	log     zerolog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(cfg Config, log zerolog.Logger) *Server {
	rec := cfg.History
	if rec == nil {
		rec = history.Discard{}
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Server{
		files:   cfg.Files,
		live:    cfg.Live,
		history: rec,
		ocr:     cfg.OCR,
		user:    cfg.User,
		version: version,
		log:     log.With().Str("component", "server").Logger(),
	}
}

// Run serves requests from stdin, writing responses to stdout.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is canceled.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error().Err(err).Msg("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "plateguard",
				"version": s.version,
				"ocr":     s.ocr,
			},
		},
	}
}
