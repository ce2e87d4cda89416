// Package server implements the MCP (Model Context Protocol) server for
// license plate redaction.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line. It
// supports initialize, tools/list, tools/call and ping.
//
// # Tools
//
// File processing:
//   - plate_process_image: detect, read and blur plates in a still image
//   - plate_process_video: the same for every frame of a video file
//
// Live camera:
//   - plate_live_start: open the camera and start a session
//   - plate_live_frame: process one frame into the snapshot file
//   - plate_live_stop: release the camera
//   - plate_live_plates: plates seen in the current or last session
//
// History:
//   - plate_history: recent image and video runs
//
// Every successful image or video run is recorded once in the history
// store. Tool errors are returned with JSON-RPC code -32000 and the Go error
// string as data.
package server
