package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/snip-tools-mcp/internal/config"
	"github.com/ironsheep/snip-tools-mcp/internal/imaging"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/navigate"
	"github.com/ironsheep/snip-tools-mcp/internal/ocr"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/snip"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
	"github.com/ironsheep/snip-tools-mcp/internal/workbook"
)

// Version is reported in the initialize handshake.
var Version = "dev"

// OCREngine is a Recognizer that can describe itself.
type OCREngine interface {
	ocr.Recognizer
	Info() ocr.Info
}

// Server handles MCP protocol communication
type Server struct {
	cfg       *config.Config
	cache     *imaging.ImageCache
	registry  *registry.Registry
	extractor *tables.Extractor
	coord     *snip.Coordinator
	resolver  *navigate.Resolver
	engine    OCREngine
	log       *logging.Logger

	mu       sync.Mutex
	workbook *workbook.Workbook

	// pending holds notifications raised while a request is handled; they
	// are written after its response.
	pendingMu sync.Mutex
	pending   []MCPNotification
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

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

// WithOCREngine replaces the Tesseract engine.
func WithOCREngine(e OCREngine) Option {
	return func(s *Server) { s.engine = e }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a new MCP server instance. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:   cfg,
		cache: imaging.NewImageCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = ocr.NewTesseract(ocr.Options{Language: cfg.OCR.Language, DisableDictionary: true})
	}

	s.registry = registry.New(registry.WithLogger(s.log.Named("registry")))
	s.extractor = tables.NewExtractor(cfg.Table, tables.WithLogger(s.log.Named("tables")))
	s.resolver = navigate.NewResolver(s.registry, s.log.Named("navigate"))
	s.coord = snip.NewCoordinator(s.registry,
		snip.WithRecognizer(s.engine),
		snip.WithExtractor(s.extractor),
		snip.WithOCRTimeout(cfg.OCR.Timeout),
		snip.WithEmbedFormulas(cfg.Workbook.EmbedFormulas),
		snip.WithLogger(s.log.Named("snip")),
	)

	s.coord.OnModeChanged(func(from, to snip.Mode) {
		s.notify("debug", map[string]interface{}{"event": "mode_changed", "from": from, "to": to})
	})
	s.coord.OnCompleted(func(res snip.Result) {
		s.notify("info", map[string]interface{}{
			"event":  "snip_completed",
			"status": res.Status,
			"id":     res.Record.ID,
			"cell":   res.Record.TargetCellReference,
			"value":  res.Value,
		})
	})
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(context.Background(), os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses and
// notifications to out until in is exhausted or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Inline snip images can be large.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 32*1024*1024)

	encoder := json.NewEncoder(out)

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
			log.Printf("Failed to parse request: %v", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
		for _, n := range s.takeNotifications() {
			if err := encoder.Encode(n); err != nil {
				log.Printf("Failed to encode notification: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// Close releases the open workbook without saving it.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workbook == nil {
		return nil
	}
	err := s.workbook.Close()
	s.workbook = nil
	return err
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
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "snip-tools-mcp",
				"version": Version,
			},
		},
	}
}

// notify queues an MCP log notification.
func (s *Server) notify(level string, data interface{}) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending = append(s.pending, MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/message",
		Params: map[string]interface{}{
			"level":  level,
			"logger": "snip",
			"data":   data,
		},
	})
}

func (s *Server) takeNotifications() []MCPNotification {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}
