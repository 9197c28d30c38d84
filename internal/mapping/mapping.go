// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapping turns saved model responses into canonical graph files.
// Each input is extracted, normalized, and written next to its peers in the
// configured output directory as <name>-graph.yaml or <name>-graph.json.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/claimgraph/internal/cache"
	"github.com/pdiddy/claimgraph/internal/forcing"
	"github.com/pdiddy/claimgraph/internal/normalize"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// inputExts are the file types picked up when an input is a directory.
var inputExts = []string{".md", ".txt", ".json"}

// BatchSummary holds counts from a batch mapping run.
type BatchSummary struct {
	Mapped  int
	Skipped int
	Failed  int
}

// Total returns the number of inputs processed.
func (s BatchSummary) Total() int {
	return s.Mapped + s.Skipped + s.Failed
}

// HasFailures reports whether any input failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Document is the on-disk form of one mapped response.
type Document struct {
	Source     string            `json:"source" yaml:"source"`
	Generation string            `json:"generation" yaml:"generation"`
	Narrative  string            `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	Graph      *types.Graph      `json:"graph" yaml:"graph"`
	Points     []PointSummary    `json:"forcing_points" yaml:"forcing_points"`
	Warnings   []normalize.Issue `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// PointSummary is a flat, format-neutral view of a forcing point.
type PointSummary struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     string   `json:"kind" yaml:"kind"`
	Question string   `json:"question,omitempty" yaml:"question,omitempty"`
	Claims   []string `json:"claims" yaml:"claims"`
}

// Pipeline maps raw text to normalized results, memoizing by content.
type Pipeline struct {
	cache *cache.GraphCache
}

// NewPipeline returns a pipeline backed by c. A nil c disables memoization.
func NewPipeline(c *cache.GraphCache) *Pipeline {
	return &Pipeline{cache: c}
}

// Map extracts and normalizes one model response.
func (p *Pipeline) Map(text string) normalize.Result {
	if r, ok := p.cache.Get(text); ok {
		return r
	}
	r := normalize.NormalizeText(text)
	p.cache.Put(text, r)
	return r
}

// MapFile reads path and maps its contents.
func (p *Pipeline) MapFile(path string) (normalize.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("reading input %s: %w", path, err)
	}
	return p.Map(string(data)), nil
}

// MapFiles maps every input into cfg.OutputDir using up to cfg.Workers
// goroutines. Inputs may be files or directories; directories contribute
// their .md, .txt, and .json files. Inputs whose graph file is newer than
// the input are skipped. Per-input failures are counted and reported on w;
// the returned error covers only setup problems and cancellation.
func (p *Pipeline) MapFiles(ctx context.Context, cfg types.MappingConfig, inputs []string, w io.Writer) (BatchSummary, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return BatchSummary{}, fmt.Errorf("creating output directory: %w", err)
	}

	files, err := expandInputs(inputs)
	if err != nil {
		return BatchSummary{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(count *int, format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
		if count != nil {
			*count++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			name := baseName(path)
			outPath := filepath.Join(cfg.OutputDir, name+"-graph."+string(format(cfg)))

			changed, err := hasChanged(path, outPath)
			if err != nil {
				report(&summary.Failed, "failed  %s: %v\n", name, err)
				return nil
			}
			if !changed {
				report(&summary.Skipped, "skipped %s\n", name)
				return nil
			}

			report(nil, "mapping %s\n", name)

			result, err := p.MapFile(path)
			if err != nil {
				report(&summary.Failed, "failed  %s: %v\n", name, err)
				return nil
			}
			if !result.Success {
				report(&summary.Failed, "failed  %s: %v\n", name, result.Err())
				return nil
			}

			doc := NewDocument(path, result)
			if err := writeDocument(outPath, format(cfg), doc); err != nil {
				report(&summary.Failed, "failed  %s: write error: %v\n", name, err)
				return nil
			}

			report(&summary.Mapped, "mapped %s (%d claims, %d forcing points, %d warnings)\n",
				name, len(doc.Graph.Claims), len(doc.Points), len(result.Warnings))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("mapping inputs: %w", err)
	}
	return summary, nil
}

// NewDocument builds the file form of a successful result.
func NewDocument(source string, r normalize.Result) Document {
	return Document{
		Source:     source,
		Generation: forcing.Fingerprint(r.Output),
		Narrative:  r.Narrative,
		Graph:      r.Output,
		Points:     Summarize(forcing.Extract(r.Output)),
		Warnings:   r.Warnings,
	}
}

// Summarize flattens forcing points for display and export.
func Summarize(points []types.ForcingPoint) []PointSummary {
	out := make([]PointSummary, 0, len(points))
	for _, fp := range points {
		switch p := fp.(type) {
		case types.ConditionalPoint:
			out = append(out, PointSummary{
				ID:       p.ID,
				Kind:     "conditional",
				Question: p.Pruner.Question,
				Claims:   p.Pruner.AffectedClaims,
			})
		case types.ConflictPoint:
			ps := PointSummary{
				ID:     p.ID,
				Kind:   "conflict",
				Claims: []string{p.Options[0].ClaimID, p.Options[1].ClaimID},
			}
			if p.Question != nil {
				ps.Question = *p.Question
			}
			out = append(out, ps)
		}
	}
	return out
}

// ReadDocument loads a graph file written by MapFiles.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading graph file %s: %w", path, err)
	}

	var doc Document
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return Document{}, fmt.Errorf("parsing graph file %s: %w", path, err)
	}
	if doc.Graph == nil {
		return Document{}, fmt.Errorf("graph file %s has no graph", path)
	}
	return doc, nil
}

func format(cfg types.MappingConfig) types.OutputFormat {
	if cfg.Format == types.OutputJSON {
		return types.OutputJSON
	}
	return types.OutputYAML
}

func expandInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat input %s: %w", in, err)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("reading input directory %s: %w", in, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !slices.Contains(inputExts, filepath.Ext(entry.Name())) {
				continue
			}
			files = append(files, filepath.Join(in, entry.Name()))
		}
	}
	return files, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// hasChanged reports whether the input is newer than its graph file.
func hasChanged(inPath, outPath string) (bool, error) {
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false, fmt.Errorf("stat input %s: %w", inPath, err)
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("stat output %s: %w", outPath, err)
	}

	return inInfo.ModTime().After(outInfo.ModTime()), nil
}

func writeDocument(path string, f types.OutputFormat, doc Document) error {
	var (
		data []byte
		err  error
	)
	if f == types.OutputJSON {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshaling graph document: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
