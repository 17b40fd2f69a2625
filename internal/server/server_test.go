package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"strings"
	"testing"

	"github.com/ironsheep/snip-tools-mcp/internal/ocr"
)

// fakeEngine recognizes every image as the same text.
type fakeEngine struct {
	text string
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.text == "" {
		return &ocr.Result{Success: false, ErrorMessage: "no text found"}, nil
	}
	return &ocr.Result{Success: true, Text: f.text, Confidence: 0.87}, nil
}

func (f *fakeEngine) Info() ocr.Info {
	return ocr.Info{Available: true, Language: "eng", Backend: "fake"}
}

func newTestServer(t *testing.T, text string) *Server {
	t.Helper()
	s := New(nil, WithOCREngine(&fakeEngine{text: text}))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	s := New(nil)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.engine == nil {
		t.Fatal("New() did not set up an OCR engine")
	}
	if s.cfg.Workbook.Sheet != "Sheet1" {
		t.Errorf("default sheet: got %q, want Sheet1", s.cfg.Workbook.Sheet)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestMCPResponse_WithError(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32000,
			Message: "Tool execution failed",
			Data:    map[string]interface{}{"code": "NOT_FOUND", "details": "snip x not found"},
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response should omit result: %s", data)
	}

	var decoded MCPResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Error == nil {
		t.Fatal("Error should not be nil")
	}
	details, ok := decoded.Error.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Error.Data: got %T, want map", decoded.Error.Data)
	}
	if details["code"] != "NOT_FOUND" {
		t.Errorf("Error.Data.code: got %v, want NOT_FOUND", details["code"])
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, "")
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
	}

	resp := s.handleRequest(context.Background(), req)

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "snip-tools-mcp" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
	if serverInfo["version"] != Version {
		t.Errorf("serverInfo.version: got %v, want %s", serverInfo["version"], Version)
	}

	caps := result["capabilities"].(map[string]interface{})
	if _, ok := caps["logging"]; !ok {
		t.Error("capabilities should advertise logging")
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})

	// Notifications don't get responses
	if resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

// readLines decodes every JSON line written by Serve.
func readLines(t *testing.T, out *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("output line is not JSON: %v: %s", err, scanner.Text())
		}
		lines = append(lines, m)
	}
	return lines
}

func TestServe(t *testing.T) {
	s := newTestServer(t, "")

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"snip_set_mode","arguments":{"mode":"sum"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"snip_process","arguments":{"page":1,"bounds":{"x":0,"y":0,"width":50,"height":10},"target_cell":"B3","text":"12 and 30"}}}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	lines := readLines(t, &out)

	// initialize, parse error, set_mode + notification, process + two notifications
	if len(lines) != 7 {
		t.Fatalf("got %d output lines, want 7: %v", len(lines), lines)
	}

	if lines[0]["id"] != float64(1) {
		t.Errorf("first line should answer initialize, got %v", lines[0])
	}

	parseErr, ok := lines[1]["error"].(map[string]interface{})
	if !ok || parseErr["code"] != float64(-32700) {
		t.Errorf("second line should be a parse error, got %v", lines[1])
	}

	if lines[2]["id"] != float64(2) {
		t.Errorf("third line should answer snip_set_mode, got %v", lines[2])
	}
	if lines[3]["method"] != "notifications/message" {
		t.Errorf("mode change should be notified after the response, got %v", lines[3])
	}

	if lines[4]["id"] != float64(3) {
		t.Errorf("fifth line should answer snip_process, got %v", lines[4])
	}

	var events []string
	for _, n := range lines[5:] {
		params := n["params"].(map[string]interface{})
		data := params["data"].(map[string]interface{})
		events = append(events, data["event"].(string))
		if data["event"] == "snip_completed" && data["value"] != "42" {
			t.Errorf("snip_completed value: got %v, want 42", data["value"])
		}
	}
	want := []string{"mode_changed", "snip_completed"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events: got %v, want %v", events, want)
	}
}

func TestServe_CancelledContext(t *testing.T) {
	s := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be written, got %s", out.String())
	}
}
