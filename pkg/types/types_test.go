// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func sampleDeterminants() DeterminantList {
	return DeterminantList{
		IntrinsicDeterminant{
			Fork:     "storage",
			Hinge:    "query shape",
			Question: "Do you need joins?",
			Claims:   []string{"c_0", "c_1"},
			Paths:    map[string]string{"c_0": "relational", "c_1": "key-value"},
		},
		ExtrinsicDeterminant{
			ID:       "g_budget",
			Fork:     "budget",
			Hinge:    "spend",
			Question: "Is there budget for a managed service?",
			Claims:   []string{"c_1"},
			NoMeans:  "self-host",
		},
	}
}

func TestDeterminantListJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(sampleDeterminants())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"intrinsic"`)
	assert.Contains(t, string(data), `"type":"extrinsic"`)

	var got DeterminantList
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleDeterminants(), got)
}

func TestDeterminantListYAMLRoundTrip(t *testing.T) {
	data, err := yaml.Marshal(sampleDeterminants())
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: intrinsic")

	var got DeterminantList
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, sampleDeterminants(), got)
}

func TestDeterminantListUnknownType(t *testing.T) {
	var l DeterminantList
	assert.Error(t, json.Unmarshal([]byte(`[{"type":"mystery"}]`), &l))
	assert.Error(t, yaml.Unmarshal([]byte("- type: mystery\n"), &l))
	assert.Error(t, yaml.Unmarshal([]byte("type: intrinsic\n"), &l))
}

func TestEdgeQuestionEncodesNull(t *testing.T) {
	data, err := json.Marshal(Edge{From: "c_0", To: "c_1", Type: EdgeConflict})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"c_0","to":"c_1","type":"conflict","question":null}`, string(data))
}

func TestReferencedClaimIDs(t *testing.T) {
	g := &Graph{
		Claims:       []Claim{{ID: "c_0"}, {ID: "c_1"}},
		Edges:        []Edge{{From: "c_1", To: "c_2"}},
		Conditionals: []ConditionalPruner{{ID: "g", AffectedClaims: []string{"c_3", "c_0"}}},
	}
	assert.Equal(t, []string{"c_0", "c_1", "c_2", "c_3"}, g.ReferencedClaimIDs())

	c, ok := g.Claim("c_1")
	assert.True(t, ok)
	assert.Equal(t, "c_1", c.ID)
	_, ok = g.Claim("c_2")
	assert.False(t, ok)
}

func TestResolutionJSON(t *testing.T) {
	data, err := json.Marshal(ConditionalResolution{Satisfied: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"conditional","satisfied":true}`, string(data))

	data, err = json.Marshal(ConflictResolution{SelectedClaimID: "c_1", SelectedLabel: "B"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"conflict","selectedClaimId":"c_1","selectedLabel":"B"}`, string(data))
}

func TestTraversalStateClone(t *testing.T) {
	s := TraversalState{
		ClaimStatuses: map[string]ClaimStatus{"c_0": ClaimActive},
		Resolutions:   map[string]Resolution{"fp": ConditionalResolution{Satisfied: true}},
		PathSteps:     []string{"one"},
	}
	c := s.Clone()
	c.ClaimStatuses["c_0"] = ClaimPruned
	c.Resolutions["fp2"] = ConflictResolution{}
	c.PathSteps[0] = "changed"

	assert.Equal(t, ClaimActive, s.ClaimStatuses["c_0"])
	assert.Len(t, s.Resolutions, 1)
	assert.Equal(t, "one", s.PathSteps[0])
}

func TestConflictPointOptions(t *testing.T) {
	p := ConflictPoint{Options: [2]ConflictOption{{ClaimID: "c_0", Label: "A"}, {ClaimID: "c_1", Label: "B"}}}

	o, ok := p.Option("c_1")
	assert.True(t, ok)
	assert.Equal(t, "B", o.Label)
	assert.Equal(t, "A", p.Other("c_1").Label)

	_, ok = p.Option("c_9")
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.Mapping.OutputDir = "" }},
		{"unknown format", func(c *Config) { c.Mapping.Format = "toml" }},
		{"zero workers", func(c *Config) { c.Mapping.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Mapping.Workers = 1000 }},
		{"negative ttl", func(c *Config) { c.Mapping.CacheTTL = -time.Second }},
		{"empty session dir", func(c *Config) { c.Session.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
