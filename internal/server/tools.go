package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var modeNames = []string{"text", "sum", "table", "validation", "exception", "image"}

// Each mode registers snips of the kind with the same name.
var kindNames = modeNames

func boundsSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "number", "description": "Left edge in page pixels"},
			"y":      map[string]interface{}{"type": "number", "description": "Top edge in page pixels"},
			"width":  map[string]interface{}{"type": "number", "description": "Width in page pixels"},
			"height": map[string]interface{}{"type": "number", "description": "Height in page pixels"},
		},
		"required":    []string{"x", "y", "width", "height"},
		"description": description,
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Snip Workflow
		{
			Name:        "snip_set_mode",
			Description: "Arm a snip mode. The next snip_process call without its own mode uses it, after which the mode returns to none.",
			InputSchema: objectSchema(map[string]interface{}{
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        append([]string{"none"}, modeNames...),
					"description": "Snip mode to arm",
				},
			}, "mode"),
		},
		{
			Name:        "snip_clear_mode",
			Description: "Disarm the current snip mode.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "snip_process",
			Description: "Process a snipped page region into a target cell: OCR or use the given text, extract a value (text, sum of numbers, table, mark or image), register the snip and write the cell of the open workbook.",
			InputSchema: objectSchema(map[string]interface{}{
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        modeNames,
					"description": "Snip mode. Defaults to the armed mode",
				},
				"document": map[string]interface{}{
					"type":        "string",
					"description": "Source document name. Defaults to image_path",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "1-based page number",
				},
				"bounds":      boundsSchema("Snipped rectangle on the page"),
				"target_cell": map[string]interface{}{"type": "string", "description": "Target cell such as B3 or 'Q1 Totals'!C3"},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text already recognized for the region. Skips OCR",
				},
				"image_path": map[string]interface{}{
					"type":        "string",
					"description": "Page image; the bounds are cut from it",
				},
				"image_base64": map[string]interface{}{
					"type":        "string",
					"description": "The snipped region itself as base64 (data URLs accepted)",
				},
			}, "page", "bounds", "target_cell"),
		},

		// Registry
		{
			Name:        "snip_get",
			Description: "Get a registered snip by id.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": map[string]interface{}{"type": "string", "description": "Snip id"},
			}, "id"),
		},
		{
			Name:        "snip_list",
			Description: "List registered snips, oldest first.",
			InputSchema: objectSchema(map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        kindNames,
					"description": "Only list snips of this kind",
				},
			}),
		},
		{
			Name:        "snip_update",
			Description: "Change the extracted value or target cell of a registered snip.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":          map[string]interface{}{"type": "string", "description": "Snip id"},
				"value":       map[string]interface{}{"type": "string", "description": "New extracted value"},
				"target_cell": map[string]interface{}{"type": "string", "description": "New target cell"},
			}, "id"),
		},
		{
			Name:        "snip_delete",
			Description: "Delete a snip by id or by target cell and clear the cell in the open workbook.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":   map[string]interface{}{"type": "string", "description": "Snip id"},
				"cell": map[string]interface{}{"type": "string", "description": "Target cell"},
			}),
		},
		{
			Name:        "snip_navigate",
			Description: "Find the source region behind a snip or a cell. Optionally render the page with the region highlighted.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":   map[string]interface{}{"type": "string", "description": "Snip id"},
				"cell": map[string]interface{}{"type": "string", "description": "Cell to navigate from"},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Cell content. Read from the open workbook when omitted",
				},
				"render": map[string]interface{}{
					"type":        "boolean",
					"description": "Return the page with the snip outlined as base64 PNG",
					"default":     false,
				},
				"image_path": map[string]interface{}{
					"type":        "string",
					"description": "Page image to render on. Defaults to the snip's document",
				},
				"thickness": map[string]interface{}{
					"type":        "integer",
					"description": "Outline thickness in pixels (default 3)",
					"default":     3,
				},
			}),
		},
		{
			Name:        "registry_export",
			Description: "Export the snip registry as the JSON blob stored in workbooks.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Extraction
		{
			Name:        "table_extract",
			Description: "Detect a table in OCR text using several parsing strategies and return the best one.",
			InputSchema: objectSchema(map[string]interface{}{
				"text": map[string]interface{}{"type": "string", "description": "Raw text"},
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"json", "markdown", "csv"},
					"description": "Output format (default json)",
					"default":     "json",
				},
				"analyze": map[string]interface{}{
					"type":        "boolean",
					"description": "Also return every strategy's score",
					"default":     false,
				},
			}, "text"),
		},
		{
			Name:        "number_parse",
			Description: "Parse a number in any common format and find and sum every number in the text.",
			InputSchema: objectSchema(map[string]interface{}{
				"text": map[string]interface{}{"type": "string", "description": "Number or free text"},
			}, "text"),
		},

		// Workbook
		{
			Name:        "workbook_open",
			Description: "Open an .xlsx workbook as the target for snips and load the snip registry stored in it.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": map[string]interface{}{"type": "string", "description": "Absolute path to the workbook"},
				"sheet": map[string]interface{}{
					"type":        "string",
					"description": "Sheet for cell references without one",
				},
				"create": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new workbook when the file does not exist",
					"default":     false,
				},
			}, "path"),
		},
		{
			Name:        "workbook_save",
			Description: "Store the snip registry in the open workbook and save it.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Pages and OCR
		{
			Name:        "page_info",
			Description: "Get the dimensions and format of a page image.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": map[string]interface{}{"type": "string", "description": "Absolute path to the page image"},
			}, "path"),
		},
		{
			Name:        "page_crop",
			Description: "Cut a region from a page image and return it as base64-encoded PNG, optionally cleaned up for OCR.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":   map[string]interface{}{"type": "string", "description": "Absolute path to the page image"},
				"bounds": boundsSchema("Region to cut"),
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor. Default 1.0",
					"default":     1.0,
				},
				"clean": map[string]interface{}{
					"type":        "boolean",
					"description": "Grayscale, upscale, sharpen and binarize the region",
					"default":     false,
				},
			}, "path", "bounds"),
		},
		{
			Name:        "ocr_info",
			Description: "Report whether OCR is available and which engine and language it uses.",
			InputSchema: objectSchema(map[string]interface{}{}),
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
