package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/snip-tools-mcp/internal/apperr"
	"github.com/ironsheep/snip-tools-mcp/internal/imaging"
	"github.com/ironsheep/snip-tools-mcp/internal/navigate"
	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/snip"
	"github.com/ironsheep/snip-tools-mcp/internal/workbook"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "snip_process", "snip_navigate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data carries the error code and message:
//
//	{"code": "VALIDATION_ERROR", "details": "no target cell selected"}
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debugf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", map[string]interface{}{
			"code":    apperr.GetCode(err),
			"details": err.Error(),
		})
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads page images from cache as needed
//  4. Calls the snip/registry/workbook function behind the tool
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Snip Workflow
	case "snip_set_mode":
		return s.handleSnipSetMode(args)
	case "snip_clear_mode":
		return s.handleSnipClearMode()
	case "snip_process":
		return s.handleSnipProcess(ctx, args)

	// Registry
	case "snip_get":
		return s.handleSnipGet(args)
	case "snip_list":
		return s.handleSnipList(args)
	case "snip_update":
		return s.handleSnipUpdate(args)
	case "snip_delete":
		return s.handleSnipDelete(args)
	case "snip_navigate":
		return s.handleSnipNavigate(args)
	case "registry_export":
		return s.handleRegistryExport()

	// Extraction
	case "table_extract":
		return s.handleTableExtract(args)
	case "number_parse":
		return s.handleNumberParse(args)

	// Workbook
	case "workbook_open":
		return s.handleWorkbookOpen(args)
	case "workbook_save":
		return s.handleWorkbookSave()

	// Pages and OCR
	case "page_info":
		return s.handlePageInfo(args)
	case "page_crop":
		return s.handlePageCrop(args)
	case "ocr_info":
		return s.engine.Info(), nil

	default:
		return nil, apperr.Newf(apperr.CodeInvalidInput, "unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as an empty
// object so tools without required fields can be called bare.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return apperr.WithCode(apperr.CodeInvalidInput, fmt.Errorf("invalid arguments: %w", err))
	}
	return nil
}

// OpenWorkbook opens path and makes it the target of snips, replacing any
// open workbook. The snip registry is reloaded from the file.
func (s *Server) OpenWorkbook(path string, opts workbook.Options) (*workbook.Workbook, int, error) {
	if opts.Logger == nil {
		opts.Logger = s.log
	}
	wb, err := workbook.Open(path, opts)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.workbook != nil {
		if err := s.workbook.Close(); err != nil {
			s.log.Warnf("failed to close %s: %v", s.workbook.Path(), err)
		}
	}
	s.workbook = wb

	n := wb.LoadRegistry(s.registry)
	s.registry.SetCellClearer(wb)
	s.coord.SetCellWriter(wb)
	return wb, n, nil
}

func (s *Server) currentWorkbook() *workbook.Workbook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workbook
}

// === Snip Workflow Handlers ===

type snipSetModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSnipSetMode(args json.RawMessage) (interface{}, error) {
	var a snipSetModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := snip.ParseMode(a.Mode)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	previous := s.coord.Mode()
	s.coord.SetMode(mode)
	return map[string]interface{}{
		"mode":     mode,
		"previous": previous,
	}, nil
}

func (s *Server) handleSnipClearMode() (interface{}, error) {
	previous := s.coord.Mode()
	s.coord.ClearMode()
	return map[string]interface{}{
		"mode":     snip.ModeNone,
		"previous": previous,
	}, nil
}

type snipProcessArgs struct {
	Mode        string          `json:"mode"`
	Document    string          `json:"document"`
	Page        int             `json:"page"`
	Bounds      registry.Bounds `json:"bounds"`
	TargetCell  string          `json:"target_cell"`
	Text        string          `json:"text"`
	ImagePath   string          `json:"image_path"`
	ImageBase64 string          `json:"image_base64"`
}

// snipProcessResult is snip.Result with the bitmap encoded for transport.
type snipProcessResult struct {
	snip.Result
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleSnipProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a snipProcessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	mode := snip.ModeNone
	if a.Mode != "" {
		m, err := snip.ParseMode(a.Mode)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		mode = m
	}

	// Marks carry no content, so their bounds need not cover any pixels.
	effective := mode
	if effective == snip.ModeNone {
		effective = s.coord.Mode()
	}
	var region image.Image
	if effective.NeedsSource() || effective == snip.ModeImage {
		r, err := s.snipRegion(a)
		if err != nil {
			return nil, err
		}
		region = r
	}

	document := a.Document
	if document == "" {
		document = a.ImagePath
	}

	res := s.coord.ProcessSnip(ctx, snip.Request{
		Mode:       mode,
		Document:   document,
		Page:       a.Page,
		Bounds:     a.Bounds,
		TargetCell: a.TargetCell,
		Text:       a.Text,
		Image:      region,
	})
	if res.Status == snip.StatusFailure {
		return nil, res.Err
	}

	out := snipProcessResult{Result: res}
	if res.Image != nil {
		enc, err := imaging.EncodePNGBase64(res.Image)
		if err != nil {
			return nil, err
		}
		out.Image = enc
	}
	return out, nil
}

// snipRegion returns the snipped bitmap: the bounds cut from the page at
// image_path, or the image_base64 data as-is. Neither yields nil.
func (s *Server) snipRegion(a snipProcessArgs) (image.Image, error) {
	switch {
	case a.ImageBase64 != "":
		img, err := imaging.DecodeBase64(a.ImageBase64)
		if err != nil {
			return nil, apperr.WithCode(apperr.CodeInvalidInput, err)
		}
		return img, nil
	case a.ImagePath != "":
		page, err := s.cache.Load(a.ImagePath)
		if err != nil {
			return nil, apperr.WithCode(apperr.CodeNotFound, err)
		}
		r := imaging.RegionRect(a.Bounds.X, a.Bounds.Y, a.Bounds.Width, a.Bounds.Height)
		region, err := imaging.CropRegion(page, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), 1)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		return region, nil
	default:
		return nil, nil
	}
}

// === Registry Handlers ===

type snipIDArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleSnipGet(args json.RawMessage) (interface{}, error) {
	var a snipIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	rec, ok := s.registry.Get(a.ID)
	if !ok {
		return nil, apperr.NotFound("snip " + a.ID)
	}
	return rec, nil
}

type snipListArgs struct {
	Kind string `json:"kind"`
}

func (s *Server) handleSnipList(args json.RawMessage) (interface{}, error) {
	var a snipListArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	snips := s.registry.All()
	if a.Kind != "" {
		kind, err := registry.ParseKind(a.Kind)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		filtered := snips[:0]
		for _, rec := range snips {
			if rec.Kind == kind {
				filtered = append(filtered, rec)
			}
		}
		snips = filtered
	}
	if snips == nil {
		snips = []registry.SnipRecord{}
	}
	return map[string]interface{}{
		"count": len(snips),
		"snips": snips,
	}, nil
}

type snipUpdateArgs struct {
	ID         string  `json:"id"`
	Value      *string `json:"value"`
	TargetCell *string `json:"target_cell"`
}

func (s *Server) handleSnipUpdate(args json.RawMessage) (interface{}, error) {
	var a snipUpdateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	rec, ok := s.registry.Get(a.ID)
	if !ok {
		return nil, apperr.NotFound("snip " + a.ID)
	}
	if a.Value != nil {
		rec.ExtractedValue = *a.Value
	}
	if a.TargetCell != nil {
		if _, _, err := registry.SplitCellRef(*a.TargetCell); err != nil {
			return nil, apperr.Validation(err.Error())
		}
		rec.TargetCellReference = strings.TrimSpace(*a.TargetCell)
	}
	if err := s.registry.Update(a.ID, rec); err != nil {
		return nil, err
	}
	updated, _ := s.registry.Get(a.ID)
	return updated, nil
}

type snipDeleteArgs struct {
	ID   string `json:"id"`
	Cell string `json:"cell"`
}

func (s *Server) handleSnipDelete(args json.RawMessage) (interface{}, error) {
	var a snipDeleteArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var deleted bool
	switch {
	case a.ID != "":
		deleted = s.registry.Delete(a.ID)
	case a.Cell != "":
		deleted = s.registry.DeleteByCell(a.Cell)
	default:
		return nil, apperr.Validation("either id or cell is required")
	}
	return map[string]interface{}{"deleted": deleted}, nil
}

type snipNavigateArgs struct {
	ID        string `json:"id"`
	Cell      string `json:"cell"`
	Content   string `json:"content"`
	Render    bool   `json:"render"`
	ImagePath string `json:"image_path"`
	Thickness int    `json:"thickness"`
}

type navigateResult struct {
	navigate.Target
	Highlight *imaging.EncodedImage `json:"highlight,omitempty"`
}

func (s *Server) handleSnipNavigate(args json.RawMessage) (interface{}, error) {
	var a snipNavigateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Thickness == 0 {
		a.Thickness = 3
	}

	var (
		target navigate.Target
		ok     bool
	)
	switch {
	case a.ID != "":
		target, ok = s.resolver.Navigate(a.ID)
	case a.Cell != "":
		content := a.Content
		if content == "" {
			if wb := s.currentWorkbook(); wb != nil {
				// A missing sheet just means there is no formula to follow.
				content, _ = wb.CellContent(a.Cell)
			}
		}
		target, ok = s.resolver.NavigateCell(content, a.Cell)
	default:
		return nil, apperr.Validation("either id or cell is required")
	}
	if !ok {
		return nil, apperr.NotFound("snip for " + strings.TrimSpace(a.ID+" "+a.Cell))
	}

	out := navigateResult{Target: target}
	if a.Render {
		path := a.ImagePath
		if path == "" {
			path = target.Document
		}
		page, err := s.cache.Load(path)
		if err != nil {
			return nil, apperr.WithCode(apperr.CodeNotFound, err)
		}
		b := target.Bounds
		marked, err := imaging.Highlight(page, imaging.RegionRect(b.X, b.Y, b.Width, b.Height), target.HighlightColor, a.Thickness)
		if err != nil {
			return nil, err
		}
		enc, err := imaging.EncodePNGBase64(marked)
		if err != nil {
			return nil, err
		}
		out.Highlight = enc
	}
	return out, nil
}

func (s *Server) handleRegistryExport() (interface{}, error) {
	blob, err := s.registry.Serialize()
	if err != nil {
		return nil, apperr.WithCode(apperr.CodePersistence, err)
	}
	return map[string]interface{}{
		"count":    s.registry.Len(),
		"registry": json.RawMessage(blob),
	}, nil
}

// === Extraction Handlers ===

type tableExtractArgs struct {
	Text    string `json:"text"`
	Format  string `json:"format"`
	Analyze bool   `json:"analyze"`
}

func (s *Server) handleTableExtract(args json.RawMessage) (interface{}, error) {
	var a tableExtractArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Format == "" {
		a.Format = "json"
	}

	table := s.extractor.Extract(a.Text)
	out := map[string]interface{}{
		"dimensions": table.Dimensions(),
		"empty":      table.IsEmpty(),
	}
	switch a.Format {
	case "json":
		out["table"] = table
	case "markdown":
		out["table"] = table.ToMarkdown()
	case "csv":
		out["table"] = table.ToCSV()
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown format %q (want json, markdown or csv)", a.Format))
	}
	if a.Analyze {
		out["candidates"] = s.extractor.Analyze(a.Text)
	}
	return out, nil
}

type numberParseArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleNumberParse(args json.RawMessage) (interface{}, error) {
	var a numberParseArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	out := map[string]interface{}{}
	if v, ok := numparse.TryParse(a.Text); ok {
		out["value"] = v
		out["formatted"] = numparse.Format(v)
	}

	matches := numparse.FindNumbers(a.Text)
	if matches == nil {
		matches = []numparse.Match{}
	}
	out["numbers"] = matches
	if len(matches) > 0 {
		sum, fractional := numparse.Sum(matches)
		out["sum"] = numparse.FormatSum(sum, fractional)
	}
	return out, nil
}

// === Workbook Handlers ===

type workbookOpenArgs struct {
	Path   string `json:"path"`
	Sheet  string `json:"sheet"`
	Create bool   `json:"create"`
}

func (s *Server) handleWorkbookOpen(args json.RawMessage) (interface{}, error) {
	var a workbookOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Sheet == "" {
		a.Sheet = s.cfg.Workbook.Sheet
	}

	wb, n, err := s.OpenWorkbook(a.Path, workbook.Options{Sheet: a.Sheet, Create: a.Create})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":   wb.Path(),
		"sheets": wb.Sheets(),
		"snips":  n,
	}, nil
}

func (s *Server) handleWorkbookSave() (interface{}, error) {
	wb := s.currentWorkbook()
	if wb == nil {
		return nil, apperr.New(apperr.CodeWorkbookMissing, "no workbook is open")
	}
	if err := wb.SaveRegistry(s.registry); err != nil {
		return nil, err
	}
	if err := wb.Save(); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"path":  wb.Path(),
		"snips": s.registry.Len(),
	}, nil
}

// === Page Handlers ===

type pagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePageInfo(args json.RawMessage) (interface{}, error) {
	var a pagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, apperr.WithCode(apperr.CodeNotFound, err)
	}
	return info, nil
}

type pageCropArgs struct {
	Path   string          `json:"path"`
	Bounds registry.Bounds `json:"bounds"`
	Scale  float64         `json:"scale"`
	Clean  bool            `json:"clean"`
}

func (s *Server) handlePageCrop(args json.RawMessage) (interface{}, error) {
	var a pageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	page, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, apperr.WithCode(apperr.CodeNotFound, err)
	}
	r := imaging.RegionRect(a.Bounds.X, a.Bounds.Y, a.Bounds.Width, a.Bounds.Height)
	region, err := imaging.CropRegion(page, r.Min.X, r.Min.Y, r.Dx(), r.Dy(), a.Scale)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	var out image.Image = region
	if a.Clean {
		out = imaging.Clean(region)
	}
	return imaging.EncodePNGBase64(out)
}
