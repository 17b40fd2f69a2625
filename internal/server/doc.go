// Package server implements the MCP (Model Context Protocol) server for the
// snip tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the snip workflow
// through the MCP protocol: an assistant arms a mode, snips a region of a
// document page into a spreadsheet cell, and later follows the cell back to
// the region it came from.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// Mode changes and completed snips are reported as notifications/message log
// notifications, written after the response of the call that raised them.
//
// # Available Tools
//
// Snip Workflow:
//   - snip_set_mode, snip_clear_mode: Arm or disarm a snip mode
//   - snip_process: OCR, extract, register and write one snip
//
// Registry:
//   - snip_get, snip_list, snip_update, snip_delete: Manage registered snips
//   - snip_navigate: Resolve a snip or cell to its source region
//   - registry_export: Dump the registry blob
//
// Extraction:
//   - table_extract: Multi-strategy table detection
//   - number_parse: Number parsing and summing
//
// Workbook:
//   - workbook_open, workbook_save: Target workbook and registry persistence
//
// Pages and OCR:
//   - page_info, page_crop, ocr_info
//
// # Image Caching
//
// Page images are cached by path and reused across tool calls, avoiding
// redundant disk I/O. The cache persists for the lifetime of the server
// process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: {"code": <error code>, "details": <error message>}
//
// # Usage
//
//	srv := server.New(cfg, server.WithLogger(log))
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
