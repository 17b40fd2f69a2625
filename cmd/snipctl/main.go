// Command snipctl runs the snip extraction engine from the shell: table and
// number extraction on text, and registry inspection of saved workbooks.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/snip-tools-mcp/internal/config"
	"github.com/ironsheep/snip-tools-mcp/internal/logging"
	"github.com/ironsheep/snip-tools-mcp/internal/navigate"
	"github.com/ironsheep/snip-tools-mcp/internal/numparse"
	"github.com/ironsheep/snip-tools-mcp/internal/registry"
	"github.com/ironsheep/snip-tools-mcp/internal/tables"
	"github.com/ironsheep/snip-tools-mcp/internal/workbook"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	logLevel string
	log      *logging.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "snipctl",
		Short:        "Extract tables and numbers from text and inspect snip workbooks",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logging.New(logging.ParseLevel(opts.logLevel))
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: error, warn, info, debug")

	root.AddCommand(
		newTableCmd(opts),
		newNumberCmd(),
		newListCmd(opts),
		newNavigateCmd(opts),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTableCmd(opts *options) *cobra.Command {
	var (
		format  string
		analyze bool
	)

	cmd := &cobra.Command{
		Use:   "table [file]",
		Short: "Detect a table in OCR text (read from file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			// Environment overrides for the scoring weights apply here too.
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			extractor := tables.NewExtractor(cfg.Table, tables.WithLogger(opts.log.Named("tables")))
			table := extractor.Extract(string(raw))

			out := cmd.OutOrStdout()
			if analyze {
				for _, c := range extractor.Analyze(string(raw)) {
					line := fmt.Sprintf("%-14s score=%.3f rows=%d cols=%d", c.Strategy, c.Score, c.Rows, c.Columns)
					if c.Error != "" {
						line += " error=" + c.Error
					}
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
			}

			switch format {
			case "json":
				return writeJSON(out, table)
			case "markdown", "md":
				_, err := fmt.Fprintln(out, table.ToMarkdown())
				return err
			case "csv":
				_, err := io.WriteString(out, table.ToCSV())
				return err
			default:
				return fmt.Errorf("invalid format: %s (must be json, markdown, or csv)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, markdown, csv")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Print every strategy's score to stderr")
	return cmd
}

func newNumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "number <text>...",
		Short: "Find and sum the numbers in text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			matches := numparse.FindNumbers(text)

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				_, err := fmt.Fprintln(out, "[No numbers detected]")
				return err
			}
			for _, m := range matches {
				fmt.Fprintf(out, "%-16s %s\n", m.Text, numparse.Format(m.Value))
			}
			sum, fractional := numparse.Sum(matches)
			_, err := fmt.Fprintf(out, "sum              %s\n", numparse.FormatSum(sum, fractional))
			return err
		},
	}
}

// loadRegistry opens the workbook at path read-only and restores its snips.
func loadRegistry(path string, log *logging.Logger) (*workbook.Workbook, *registry.Registry, error) {
	wb, err := workbook.Open(path, workbook.Options{Logger: log})
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New(registry.WithLogger(log.Named("registry")))
	wb.LoadRegistry(reg)
	return wb, reg, nil
}

func newListCmd(opts *options) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list <workbook.xlsx>",
		Short: "List the snips stored in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, reg, err := loadRegistry(args[0], opts.log)
			if err != nil {
				return err
			}
			defer wb.Close()

			var want registry.Kind
			if kind != "" {
				if want, err = registry.ParseKind(kind); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, rec := range reg.All() {
				if want != "" && rec.Kind != want {
					continue
				}
				fmt.Fprintf(out, "%s  %-10s %-12s %s p%d  %q\n",
					rec.ID, rec.Kind, rec.TargetCellReference, rec.SourceDocument, rec.SourcePage, rec.ExtractedValue)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list snips of this kind")
	return cmd
}

func newNavigateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <workbook.xlsx> <cell>",
		Short: "Show the source region behind a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, reg, err := loadRegistry(args[0], opts.log)
			if err != nil {
				return err
			}
			defer wb.Close()

			// A cell on a missing sheet has no content; the registry may still know it.
			content, _ := wb.CellContent(args[1])
			target, ok := navigate.NewResolver(reg, opts.log.Named("navigate")).NavigateCell(content, args[1])
			if !ok {
				return fmt.Errorf("no snip linked to cell %s", args[1])
			}
			return writeJSON(cmd.OutOrStdout(), target)
		},
	}
}
