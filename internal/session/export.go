// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claimgraph/internal/traversal"
)

// ExportEntry is the latest turn of one session, flattened for export.
type ExportEntry struct {
	ID         string   `json:"id" yaml:"id"`
	Source     string   `json:"source" yaml:"source"`
	Turn       int      `json:"turn" yaml:"turn"`
	Generation string   `json:"generation" yaml:"generation"`
	Claims     int      `json:"claims" yaml:"claims"`
	LivePoints int      `json:"live_points" yaml:"live_points"`
	Complete   bool     `json:"complete" yaml:"complete"`
	PathSteps  []string `json:"path_steps" yaml:"path_steps"`
	Favored    []string `json:"favored" yaml:"favored"`
	BlockedIDs []string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
	UpdatedAt  string   `json:"updated_at" yaml:"updated_at"`
}

const exportLimit = 100000

// ExportYAML writes every session's latest turn to dir/export.yaml and
// returns the path written.
func (s *Store) ExportYAML(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every session's latest turn to dir/export.json and
// returns the path written.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	sessions, err := s.List(ctx, ListOptions{MaxResults: exportLimit})
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, 0, len(sessions))
	for _, sum := range sessions {
		snap, err := s.Load(ctx, sum.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", sum.ID, err)
		}

		favored := []string{}
		for _, c := range traversal.FavoredClaims(snap.Graph.Claims, snap.Points, snap.State) {
			favored = append(favored, c.Label)
		}

		entries = append(entries, ExportEntry{
			ID:         sum.ID,
			Source:     sum.Source,
			Turn:       snap.Turn,
			Generation: snap.Generation,
			Claims:     len(snap.Graph.Claims),
			LivePoints: len(traversal.LiveForcingPoints(snap.Points, snap.State)),
			Complete:   traversal.IsComplete(snap.Points, snap.State),
			PathSteps:  snap.State.PathSteps,
			Favored:    favored,
			BlockedIDs: traversal.BlockedClaims(snap.Points, snap.State),
			UpdatedAt:  sum.UpdatedAt.Format(time.RFC3339),
		})
	}
	return entries, nil
}
