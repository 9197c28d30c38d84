// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claimgraph/internal/cache"
	"github.com/pdiddy/claimgraph/internal/mapping"
	"github.com/pdiddy/claimgraph/internal/normalize"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// --- map command ---

var mapCmd = &cobra.Command{
	Use:   "map <file|dir|-> [more...]",
	Short: "Parse model responses into canonical claim graphs",
	Long: `Map extracts the structured map from each saved model response, repairs
and normalizes it, and writes <name>-graph.yaml (or .json) into the output
directory. Directories contribute their .md, .txt, and .json files.
Unchanged inputs are skipped on subsequent runs.

With "-" the response is read from stdin and the graph document is printed
to stdout instead of written to a file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMap,
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := mapping.NewPipeline(cache.New(cfg.Mapping.CacheTTL))

	if len(args) == 1 && args[0] == "-" {
		return mapStdin(p, cfg.Mapping.Format)
	}

	summary, err := p.MapFiles(context.Background(), cfg.Mapping, args, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%d inputs: %d mapped, %d skipped, %d failed\n",
		summary.Total(), summary.Mapped, summary.Skipped, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d input(s) failed mapping", summary.Failed)
	}
	return nil
}

func mapStdin(p *mapping.Pipeline, format types.OutputFormat) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	res := p.Map(string(data))
	printIssues(os.Stderr, res)
	if !res.Success {
		return res.Err()
	}
	return writeDocument(os.Stdout, format, mapping.NewDocument("-", res))
}

func writeDocument(w io.Writer, format types.OutputFormat, doc mapping.Document) error {
	if format == types.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

// printIssues writes warnings and errors, one per line.
func printIssues(w io.Writer, res normalize.Result) {
	for _, is := range res.Errors {
		fmt.Fprintf(w, "error   %s\n", is.Error())
	}
	for _, is := range res.Warnings {
		fmt.Fprintf(w, "warning %s\n", is.Error())
	}
}

// --- points command ---

var pointsCmd = &cobra.Command{
	Use:   "points <file>",
	Short: "List the forcing points of a response or graph file",
	Long: `Points prints the ordered forcing points of a graph: the yes/no gates
first, then one conflict per pair of opposed claims. The input may be a
raw model response or a graph file written by map.`,
	Args: cobra.ExactArgs(1),
	RunE: runPoints,
}

func runPoints(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc.Points)
	}
	printPoints(os.Stdout, doc.Points)
	return nil
}

// loadDocument reads a graph file written by map, or maps a raw response.
func loadDocument(path string) (mapping.Document, error) {
	if strings.HasSuffix(path, "-graph.yaml") || strings.HasSuffix(path, "-graph.json") {
		return mapping.ReadDocument(path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return mapping.Document{}, err
	}
	res, err := mapping.NewPipeline(cache.New(cfg.Mapping.CacheTTL)).MapFile(path)
	if err != nil {
		return mapping.Document{}, err
	}
	printIssues(os.Stderr, res)
	if !res.Success {
		return mapping.Document{}, res.Err()
	}
	return mapping.NewDocument(path, res), nil
}

func printPoints(w io.Writer, points []mapping.PointSummary) {
	if len(points) == 0 {
		fmt.Fprintln(w, "No forcing points.")
		return
	}

	fmt.Fprintf(w, "%-32s  %-11s  %-40s  %s\n", "ID", "Kind", "Question", "Claims")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, p := range points {
		fmt.Fprintf(w, "%-32s  %-11s  %-40s  %s\n", p.ID, p.Kind, truncate(p.Question, 40), strings.Join(p.Claims, ", "))
	}
	fmt.Fprintf(w, "\n%d forcing points\n", len(points))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	mapCmd.Flags().String("out-dir", "", "directory for graph files (default from config: graphs)")
	mapCmd.Flags().String("format", "", "graph file format: yaml or json")
	mapCmd.Flags().Int("workers", 0, "inputs mapped in parallel")
	viper.BindPFlag("mapping.output_dir", mapCmd.Flags().Lookup("out-dir"))
	viper.BindPFlag("mapping.format", mapCmd.Flags().Lookup("format"))
	viper.BindPFlag("mapping.workers", mapCmd.Flags().Lookup("workers"))

	pointsCmd.Flags().Bool("json", false, "print points as JSON")

	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(pointsCmd)
}
