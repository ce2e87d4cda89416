package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// File processing
		{
			Name:        "plate_process_image",
			Description: "Detect license plates in a still image, read their text and write a copy with every plate blurred. Returns the plate texts found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_path":  stringProp("Absolute path to the source image"),
					"output_path": stringProp("Where to write the redacted image. The extension selects the format (jpg, png, gif, tif, bmp). Defaults to <input>_redacted.<ext>"),
					"user":        stringProp("User recorded in the run history"),
				},
				"required": []string{"input_path"},
			},
		},
		{
			Name:        "plate_process_video",
			Description: "Detect, read and blur license plates in every frame of a video file. Returns the distinct plate texts seen across the whole video.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input_path":  stringProp("Absolute path to the source video"),
					"output_path": stringProp("Where to write the redacted video. Defaults to <input>_redacted.avi"),
					"user":        stringProp("User recorded in the run history"),
				},
				"required": []string{"input_path"},
			},
		},

		// Live camera
		{
			Name:        "plate_live_start",
			Description: "Open the camera and start a live session. Plates seen are accumulated until the next start.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "plate_live_frame",
			Description: "Capture and process one camera frame. Writes the redacted frame to the snapshot path and returns the plates read in it.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "plate_live_stop",
			Description: "Release the camera. The plates of the last session stay readable.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "plate_live_plates",
			Description: "List the plates seen during the current (or last) live session, in order of first appearance.",
			InputSchema: emptySchema(),
		},

		// History
		{
			Name:        "plate_history",
			Description: "List recent image and video runs, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user": stringProp("Only list runs by this user"),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of runs (default: 50)",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
