// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package traversal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claimgraph/pkg/types"
)

func resolvedState() types.TraversalState {
	_, points, s := setup()
	s = ResolveConflict(s, points, conflictFlags, "c_2", "Flag it")
	s = ResolveConditional(s, points, gateBudget, false, types.StringPtr("no budget"))
	s = ResolveConditional(s, points, gateScale, true, nil)
	return s
}

func TestSerialize(t *testing.T) {
	data, err := Marshal(resolvedState())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"claimStatuses": [
			["c_0", "pruned"],
			["c_1", "pruned"],
			["c_2", "active"],
			["c_3", "active"],
			["c_9", "active"]
		],
		"resolutions": [
			["fp_cond_g_budget", {"type": "conditional", "satisfied": false, "userInput": "no budget"}],
			["fp_cond_g_scale", {"type": "conditional", "satisfied": true}],
			["fp_conflict_c_1_c_2", {"type": "conflict", "selectedClaimId": "c_2", "selectedLabel": "Flag it"}]
		],
		"pathSteps": [
			"preferred \"Flag it\" over \"Harden first\"",
			"Is there QA budget? -> no, pruned c_0, c_1 (\"no budget\")",
			"More than 1k users? -> yes"
		]
	}`, string(data))
}

func TestSerializeEmptyState(t *testing.T) {
	data, err := Marshal(Init(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"claimStatuses":[],"resolutions":[],"pathSteps":[]}`, string(data))
}

func TestRoundTrip(t *testing.T) {
	s := resolvedState()

	t.Run("through JSON bytes", func(t *testing.T) {
		data, err := Marshal(s)
		require.NoError(t, err)
		got, ok := Unmarshal(data)
		require.True(t, ok)
		assert.Equal(t, s, got)
	})

	t.Run("through the serialized value", func(t *testing.T) {
		got, ok := Deserialize(Serialize(s))
		require.True(t, ok)
		assert.Equal(t, s, got)
	})

	t.Run("through a pointer", func(t *testing.T) {
		ser := Serialize(s)
		got, ok := Deserialize(&ser)
		require.True(t, ok)
		assert.Equal(t, s, got)
	})
}

func TestDeserializeLegacyEncodings(t *testing.T) {
	want := map[string]types.ClaimStatus{
		"c_0": types.ClaimPruned,
		"c_1": types.ClaimActive,
		"c_2": types.ClaimActive,
	}

	tests := []struct {
		name     string
		statuses any
	}{
		{
			name:     "pairs array",
			statuses: []any{[]any{"c_0", "pruned"}, []any{"c_1", "active"}, []any{"c_2", "unavailable"}, []any{"c_x"}, "junk"},
		},
		{
			name:     "plain object",
			statuses: map[string]any{"c_0": "pruned", "c_1": "active", "c_2": float64(3)},
		},
		{
			name:     "native string map",
			statuses: map[string]string{"c_0": "pruned", "c_1": "active", "c_2": "unavailable"},
		},
		{
			name:     "native status map",
			statuses: map[string]types.ClaimStatus{"c_0": types.ClaimPruned, "c_1": types.ClaimActive, "c_2": types.ClaimUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Deserialize(map[string]any{"claimStatuses": tt.statuses})
			require.True(t, ok)
			assert.Equal(t, want, got.ClaimStatuses)
			assert.Empty(t, got.Resolutions)
			assert.Equal(t, []string{}, got.PathSteps)
		})
	}
}

func TestDeserializeResolutions(t *testing.T) {
	raw := map[string]any{
		"resolutions": []any{
			[]any{"fp_a", map[string]any{"type": "conditional", "satisfied": true, "userInput": "yes indeed"}},
			[]any{"fp_b", map[string]any{"satisfied": false}},
			[]any{"fp_c", map[string]any{"selectedClaimId": "c_1", "selectedLabel": "B"}},
			[]any{"fp_d", map[string]any{"type": "conditional"}},
			[]any{"fp_e", map[string]any{"type": "conflict"}},
			[]any{"fp_f", "nonsense"},
			[]any{float64(7), map[string]any{"satisfied": true}},
		},
		"pathSteps": []any{"one", float64(2), "three"},
	}

	got, ok := Deserialize(raw)
	require.True(t, ok)
	assert.Equal(t, map[string]types.Resolution{
		"fp_a": types.ConditionalResolution{Satisfied: true, UserInput: types.StringPtr("yes indeed")},
		"fp_b": types.ConditionalResolution{Satisfied: false},
		"fp_c": types.ConflictResolution{SelectedClaimID: "c_1", SelectedLabel: "B"},
	}, got.Resolutions)
	assert.Equal(t, []string{"one", "three"}, got.PathSteps)
}

func TestDeserializeObjectResolutions(t *testing.T) {
	got, ok := Deserialize(map[string]any{
		"resolutions": map[string]any{
			"fp_a": map[string]any{"type": "conflict", "selected_claim_id": "c_0", "selected_label": "A"},
		},
	})
	require.True(t, ok)
	assert.Equal(t, types.ConflictResolution{SelectedClaimID: "c_0", SelectedLabel: "A"}, got.Resolutions["fp_a"])
}

func TestDeserializeMalformed(t *testing.T) {
	t.Run("not an object", func(t *testing.T) {
		for _, raw := range []any{nil, "state", []any{}, float64(1), true} {
			_, ok := Deserialize(raw)
			assert.False(t, ok)
		}
	})

	t.Run("malformed fields become empty", func(t *testing.T) {
		got, ok := Deserialize(map[string]any{
			"claimStatuses": "nope",
			"resolutions":   float64(4),
			"pathSteps":     map[string]any{"0": "a"},
		})
		require.True(t, ok)
		assert.Empty(t, got.ClaimStatuses)
		assert.Empty(t, got.Resolutions)
		assert.Equal(t, []string{}, got.PathSteps)
	})

	t.Run("bad JSON", func(t *testing.T) {
		_, ok := Unmarshal([]byte(`{"claimStatuses": [`))
		assert.False(t, ok)

		_, ok = Unmarshal([]byte(`[1, 2]`))
		assert.False(t, ok)
	})
}

func TestSerializedStateEntriesEncodeAsPairs(t *testing.T) {
	data, err := json.Marshal(types.StatusEntry{ClaimID: "c_0", Status: types.ClaimPruned})
	require.NoError(t, err)
	assert.Equal(t, `["c_0","pruned"]`, string(data))
}
