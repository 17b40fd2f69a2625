package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/snip-tools-mcp/internal/config"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/server"
	"github.com/ironsheep/snip-tools-mcp/internal/workbook"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("snip-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("snip-tools-mcp - MCP server for snipping document regions into spreadsheets")
			fmt.Println()
			fmt.Println("Usage: snip-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (a .env file is read too):")
			fmt.Println("  SNIP_MCP_LOG_LEVEL=debug           error, warn, info or debug")
			fmt.Println("  SNIP_MCP_WORKBOOK=/path/book.xlsx  Workbook opened at startup")
			fmt.Println("  SNIP_MCP_SHEET=Sheet1              Sheet for unqualified cells")
			fmt.Println("  SNIP_MCP_EMBED_FORMULAS=true       Write reference formulas, not values")
			fmt.Println("  SNIP_MCP_OCR_LANGUAGE=eng          Tesseract language")
			fmt.Println("  SNIP_MCP_OCR_TIMEOUT=30s           Per-snip OCR timeout")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Debugf("Snip MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	server.Version = Version
	srv := server.New(cfg, server.WithLogger(logger))

	if cfg.Workbook.Path != "" {
		_, n, err := srv.OpenWorkbook(cfg.Workbook.Path, workbook.Options{Sheet: cfg.Workbook.Sheet, Create: true})
		if err != nil {
			log.Fatalf("Failed to open workbook: %v", err)
		}
		logger.Infof("workbook %s ready with %d snips", cfg.Workbook.Path, n)
	}
	defer srv.Close()

	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
