package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/plateguard/internal/history"
	"github.com/ironsheep/plateguard/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_process_image").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errLiveUnavailable is returned by the live tools when no camera is wired.
var errLiveUnavailable = errors.New("live capture is not configured")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// File processing
	case "plate_process_image":
		return s.handleProcessImage(ctx, args)
	case "plate_process_video":
		return s.handleProcessVideo(ctx, args)

	// Live camera
	case "plate_live_start":
		return s.handleLiveStart()
	case "plate_live_frame":
		return s.handleLiveFrame(ctx)
	case "plate_live_stop":
		return s.handleLiveStop()
	case "plate_live_plates":
		return s.handleLivePlates()

	// History
	case "plate_history":
		return s.handleHistory(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes optional tool arguments. Missing arguments decode to
// the zero value.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === File Processing Handlers ===

type processArgs struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`
	User       string `json:"user"`
}

type processResult struct {
	RunID      string   `json:"run_id"`
	InputPath  string   `json:"input_path"`
	OutputPath string   `json:"output_path"`
	Plates     []string `json:"plates"`
}

func (s *Server) handleProcessImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, err := s.processArgs(args, "")
	if err != nil {
		return nil, err
	}
	plates, err := s.files.ProcessImage(ctx, a.InputPath, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, history.SourceImage, plates), nil
}

func (s *Server) handleProcessVideo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, err := s.processArgs(args, ".avi")
	if err != nil {
		return nil, err
	}
	plates, err := s.files.ProcessVideo(ctx, a.InputPath, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, a, history.SourceVideo, plates), nil
}

func (s *Server) processArgs(args json.RawMessage, defaultExt string) (processArgs, error) {
	var a processArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return a, err
	}
	if a.InputPath == "" {
		return a, fmt.Errorf("input_path is required")
	}
	if s.files == nil {
		return a, fmt.Errorf("file processing is not configured")
	}
	if a.OutputPath == "" {
		a.OutputPath = RedactedPath(a.InputPath, defaultExt)
	}
	if a.User == "" {
		a.User = s.user
	}
	return a, nil
}

// record stores one history row for a completed run. A storage failure is
// logged; the redacted output already exists and is still reported.
func (s *Server) record(ctx context.Context, a processArgs, kind string, plates []string) processResult {
	run := history.NewRun(a.User, kind, a.InputPath, a.OutputPath, plates)
	if err := s.history.RecordRun(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("run", run.ID).Msg("failed to record run")
	}
	return processResult{
		RunID:      run.ID,
		InputPath:  run.InputPath,
		OutputPath: run.OutputPath,
		Plates:     run.Plates,
	}
}

// RedactedPath derives the default output path for inputPath: the same
// directory and name with a "_redacted" suffix. ext replaces the input
// extension when non-empty.
func RedactedPath(inputPath, ext string) string {
	orig := filepath.Ext(inputPath)
	if ext == "" {
		ext = orig
	}
	return strings.TrimSuffix(inputPath, orig) + "_redacted" + ext
}

// === Live Camera Handlers ===

type liveStatus struct {
	Running      bool     `json:"running"`
	SnapshotPath string   `json:"snapshot_path"`
	Plates       []string `json:"plates"`
}

type liveFrame struct {
	Available bool     `json:"available"`
	Path      string   `json:"path,omitempty"`
	Found     []string `json:"found"`
	Plates    []string `json:"plates"`
}

func (s *Server) status() liveStatus {
	return liveStatus{
		Running:      s.live.Running(),
		SnapshotPath: s.live.SnapshotPath(),
		Plates:       s.live.Plates(),
	}
}

func (s *Server) handleLiveStart() (interface{}, error) {
	if s.live == nil {
		return nil, errLiveUnavailable
	}
	if err := s.live.Start(); err != nil {
		return nil, err
	}
	return s.status(), nil
}

func (s *Server) handleLiveFrame(ctx context.Context) (interface{}, error) {
	if s.live == nil {
		return nil, errLiveUnavailable
	}
	snap, ok := s.live.NextFrame(ctx)
	if !ok {
		snap = pipeline.Snapshot{Found: []string{}}
	}
	return liveFrame{
		Available: ok,
		Path:      snap.Path,
		Found:     snap.Found,
		Plates:    s.live.Plates(),
	}, nil
}

func (s *Server) handleLiveStop() (interface{}, error) {
	if s.live == nil {
		return nil, errLiveUnavailable
	}
	if err := s.live.Stop(); err != nil {
		return nil, err
	}
	return s.status(), nil
}

func (s *Server) handleLivePlates() (interface{}, error) {
	if s.live == nil {
		return nil, errLiveUnavailable
	}
	return s.status(), nil
}

// === History Handlers ===

type historyArgs struct {
	User  string `json:"user"`
	Limit int    `json:"limit"`
}

func (s *Server) handleHistory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a historyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	runs, err := s.history.ListRuns(ctx, a.User, a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	}, nil
}
