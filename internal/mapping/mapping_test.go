// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claimgraph/internal/cache"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// --- test helpers ---

const response = "Here is the map.\n\n<map>\n```json\n" + `{
  "claims": [
    {"id": "c_0", "label": "Monolith", "text": "Keep one deployable.", "supporters": [0, 1]},
    {"id": "c_1", "label": "Services", "text": "Split by domain.", "supporters": [2]},
    {"id": "c_2", "label": "Platform team", "text": "Staff a platform team.", "supporters": [2]},
  ],
  "determinants": [
    {"type": "intrinsic", "fork": "shape", "hinge": "team size", "question": "How many teams ship?", "claims": ["c_0", "c_1"]},
    {"type": "extrinsic", "fork": "budget", "hinge": "headcount", "question": "Can you hire?", "claims": ["c_2"]}
  ]
}` + "\n```\n</map>\n<narrative>Two shapes, one staffing question.</narrative>\n"

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, f types.OutputFormat) types.MappingConfig {
	t.Helper()
	return types.MappingConfig{
		OutputDir: filepath.Join(t.TempDir(), "graphs"),
		Format:    f,
		Workers:   2,
	}
}

// --- tests ---

func TestMap(t *testing.T) {
	p := NewPipeline(nil)
	res := p.Map(response)

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Len(t, res.Output.Claims, 3)
	assert.Len(t, res.Output.Edges, 1)
	assert.Len(t, res.Output.Conditionals, 1)
	assert.Equal(t, "Two shapes, one staffing question.", res.Narrative)
}

func TestMapUsesCache(t *testing.T) {
	c := cache.New(time.Minute)
	p := NewPipeline(c)

	first := p.Map(response)
	require.True(t, first.Success)
	assert.Equal(t, 1, c.Len())

	second := p.Map(response)
	assert.Same(t, first.Output, second.Output)
}

func TestMapFailure(t *testing.T) {
	res := NewPipeline(nil).Map("no structure here at all")
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
}

func TestMapFilesWritesYAML(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "arch.md", response)
	writeInput(t, in, "notes.pdf", response)
	cfg := testConfig(t, types.OutputYAML)

	var buf bytes.Buffer
	summary, err := NewPipeline(nil).MapFiles(context.Background(), cfg, []string{in}, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Mapped: 1}, summary)
	assert.Contains(t, buf.String(), "mapped arch (3 claims, 2 forcing points")

	doc, err := ReadDocument(filepath.Join(cfg.OutputDir, "arch-graph.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Two shapes, one staffing question.", doc.Narrative)
	assert.Len(t, doc.Graph.Determinants, 2)
	assert.Equal(t, types.DeterminantIntrinsic, doc.Graph.Determinants[0].Kind())
	assert.Len(t, doc.Generation, 64)

	require.Len(t, doc.Points, 2)
	assert.Equal(t, "fp_cond_det_ext_1", doc.Points[0].ID)
	assert.Equal(t, "conflict", doc.Points[1].Kind)
	assert.Equal(t, "How many teams ship?", doc.Points[1].Question)
}

func TestMapFilesWritesJSON(t *testing.T) {
	in := t.TempDir()
	path := writeInput(t, in, "arch.txt", response)
	cfg := testConfig(t, types.OutputJSON)

	var buf bytes.Buffer
	summary, err := NewPipeline(nil).MapFiles(context.Background(), cfg, []string{path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mapped)

	doc, err := ReadDocument(filepath.Join(cfg.OutputDir, "arch-graph.json"))
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Len(t, doc.Graph.Claims, 3)
}

func TestMapFilesSkipsUnchanged(t *testing.T) {
	in := t.TempDir()
	path := writeInput(t, in, "arch.md", response)
	cfg := testConfig(t, types.OutputYAML)
	p := NewPipeline(nil)

	var buf bytes.Buffer
	_, err := p.MapFiles(context.Background(), cfg, []string{path}, &buf)
	require.NoError(t, err)

	buf.Reset()
	summary, err := p.MapFiles(context.Background(), cfg, []string{path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Skipped: 1}, summary)
	assert.Contains(t, buf.String(), "skipped arch")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	summary, err = p.MapFiles(context.Background(), cfg, []string{path}, &buf)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Mapped: 1}, summary)
}

func TestMapFilesCountsFailures(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, "good.md", response)
	writeInput(t, in, "prose.md", "The models could not agree on anything.")
	writeInput(t, in, "broken.json", `{"claims": "none"}`)
	cfg := testConfig(t, types.OutputYAML)

	var buf bytes.Buffer
	summary, err := NewPipeline(nil).MapFiles(context.Background(), cfg, []string{in}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, 1, summary.Mapped)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, 2, strings.Count(buf.String(), "failed  "))

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "prose-graph.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestMapFilesMissingInput(t *testing.T) {
	cfg := testConfig(t, types.OutputYAML)
	_, err := NewPipeline(nil).MapFiles(context.Background(), cfg, []string{"/does/not/exist.md"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMapFilesCancelled(t *testing.T) {
	in := t.TempDir()
	path := writeInput(t, in, "arch.md", response)
	cfg := testConfig(t, types.OutputYAML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewPipeline(nil).MapFiles(ctx, cfg, []string{path}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Total())
}

func TestBatchSummary(t *testing.T) {
	s := BatchSummary{Mapped: 2, Skipped: 1}
	assert.Equal(t, 3, s.Total())
	assert.False(t, s.HasFailures())
}
