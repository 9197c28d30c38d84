// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/claimgraph/internal/forcing"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// --- test helpers ---

const (
	gateBudget    = "fp_cond_g_budget"
	gateScale     = "fp_cond_g_scale"
	conflictShip  = "fp_conflict_c_0_c_1"
	conflictFlags = "fp_conflict_c_1_c_2"
)

func testGraph() *types.Graph {
	return &types.Graph{
		Claims: []types.Claim{
			{ID: "c_0", Label: "Ship now", Text: "Release this week."},
			{ID: "c_1", Label: "Harden first", Text: "Spend a sprint on tests."},
			{ID: "c_2", Label: "Feature flag", Text: "Ship dark behind a flag."},
			{ID: "c_3", Label: "Hire QA", Text: "Bring in a QA contractor."},
		},
		Edges: []types.Edge{
			{From: "c_0", To: "c_1", Type: types.EdgeConflict, Question: types.StringPtr("How costly is a regression?")},
			{From: "c_1", To: "c_2", Type: types.EdgeConflict},
		},
		Conditionals: []types.ConditionalPruner{
			{ID: "g_budget", Question: "Is there QA budget?", AffectedClaims: []string{"c_0", "c_1"}},
			{ID: "g_scale", Question: "More than 1k users?", AffectedClaims: []string{"c_3", "c_9"}},
		},
	}
}

func setup() (*types.Graph, []types.ForcingPoint, types.TraversalState) {
	g := testGraph()
	return g, forcing.Extract(g), Init(g)
}

func liveIDs(points []types.ForcingPoint) []string {
	var ids []string
	for _, p := range points {
		ids = append(ids, p.PointID())
	}
	return ids
}

func claimIDs(claims []types.Claim) []string {
	var ids []string
	for _, c := range claims {
		ids = append(ids, c.ID)
	}
	return ids
}

// --- Init ---

func TestInit(t *testing.T) {
	_, _, s := setup()

	assert.Equal(t, map[string]types.ClaimStatus{
		"c_0": types.ClaimActive,
		"c_1": types.ClaimActive,
		"c_2": types.ClaimActive,
		"c_3": types.ClaimActive,
		"c_9": types.ClaimActive,
	}, s.ClaimStatuses, "gate targets are tracked even without a claim")
	assert.Empty(t, s.Resolutions)
	assert.Empty(t, s.PathSteps)

	empty := Init(nil)
	assert.NotNil(t, empty.ClaimStatuses)
	assert.NotNil(t, empty.Resolutions)
}

func TestReconcile(t *testing.T) {
	g := testGraph()
	s := types.TraversalState{
		ClaimStatuses: map[string]types.ClaimStatus{"c_0": types.ClaimPruned},
	}

	got := Reconcile(g, s)
	assert.Equal(t, types.ClaimPruned, got.ClaimStatuses["c_0"])
	assert.Equal(t, types.ClaimActive, got.ClaimStatuses["c_3"])
	assert.Len(t, got.ClaimStatuses, 5)
	assert.Len(t, s.ClaimStatuses, 1, "input untouched")
}

// --- ResolveConditional ---

func TestResolveConditionalPrunes(t *testing.T) {
	_, points, s := setup()

	next := ResolveConditional(s, points, gateBudget, false, types.StringPtr("  no money this quarter "))
	assert.Equal(t, types.ClaimPruned, next.ClaimStatuses["c_0"])
	assert.Equal(t, types.ClaimPruned, next.ClaimStatuses["c_1"])
	assert.Equal(t, types.ClaimActive, next.ClaimStatuses["c_2"])

	res, ok := GetResolution(next, gateBudget)
	require.True(t, ok)
	assert.Equal(t, types.ConditionalResolution{Satisfied: false, UserInput: types.StringPtr("no money this quarter")}, res)
	assert.Equal(t, []string{`Is there QA budget? -> no, pruned c_0, c_1 ("no money this quarter")`}, next.PathSteps)

	// Pruning survives unrelated resolutions.
	later := ResolveConditional(next, points, gateScale, true, nil)
	later = ResolveConflict(later, points, conflictFlags, "c_2", "")
	assert.Equal(t, types.ClaimPruned, later.ClaimStatuses["c_0"])
	assert.Equal(t, types.ClaimPruned, later.ClaimStatuses["c_1"])

	// And re-answering the gate does not restore claims.
	again := ResolveConditional(later, points, gateBudget, true, nil)
	assert.Equal(t, types.ClaimPruned, again.ClaimStatuses["c_0"])
	assert.Equal(t, types.ConditionalResolution{Satisfied: true}, again.Resolutions[gateBudget])
	assert.Len(t, again.PathSteps, 4)
}

func TestResolveConditionalSatisfied(t *testing.T) {
	_, points, s := setup()

	next := ResolveConditional(s, points, gateScale, true, types.StringPtr("   "))
	assert.Equal(t, types.ClaimActive, next.ClaimStatuses["c_3"])
	assert.Equal(t, types.ConditionalResolution{Satisfied: true}, next.Resolutions[gateScale])
	assert.Equal(t, []string{"More than 1k users? -> yes"}, next.PathSteps)
}

func TestResolveConditionalDoesNotMutateInput(t *testing.T) {
	_, points, s := setup()
	before := s.Clone()

	_ = ResolveConditional(s, points, gateBudget, false, nil)
	assert.Equal(t, before, s)
}

func TestResolveNoOps(t *testing.T) {
	_, points, s := setup()
	s = ResolveConditional(s, points, gateScale, true, nil)

	tests := []struct {
		name string
		run  func() types.TraversalState
	}{
		{"unknown gate id", func() types.TraversalState {
			return ResolveConditional(s, points, "fp_cond_stale", false, nil)
		}},
		{"gate id names a conflict", func() types.TraversalState {
			return ResolveConditional(s, points, conflictShip, false, nil)
		}},
		{"unknown conflict id", func() types.TraversalState {
			return ResolveConflict(s, points, "fp_conflict_c_8_c_9", "c_8", "x")
		}},
		{"conflict id names a gate", func() types.TraversalState {
			return ResolveConflict(s, points, gateBudget, "c_0", "x")
		}},
		{"claim is not an option", func() types.TraversalState {
			return ResolveConflict(s, points, conflictShip, "c_2", "x")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, s, tt.run())
		})
	}
}

// --- ResolveConflict ---

func TestResolveConflict(t *testing.T) {
	g, points, s := setup()

	next := ResolveConflict(s, points, conflictShip, "c_0", "Ship now")

	res, ok := GetResolution(next, conflictShip)
	require.True(t, ok)
	cr, ok := res.(types.ConflictResolution)
	require.True(t, ok)
	assert.Equal(t, "c_0", cr.SelectedClaimID)
	assert.Equal(t, "Ship now", cr.SelectedLabel)

	assert.NotContains(t, liveIDs(LiveForcingPoints(points, next)), conflictShip)

	// The unselected side stays active but is no longer favored.
	assert.Equal(t, types.ClaimActive, next.ClaimStatuses["c_1"])
	assert.Contains(t, claimIDs(ActiveClaims(g.Claims, next)), "c_1")
	assert.NotContains(t, claimIDs(FavoredClaims(g.Claims, points, next)), "c_1")

	assert.Equal(t, []string{`How costly is a regression? -> preferred "Ship now" over "Harden first"`}, next.PathSteps)
}

func TestResolveConflictDefaultsLabel(t *testing.T) {
	_, points, s := setup()

	next := ResolveConflict(s, points, conflictFlags, "c_2", " ")
	assert.Equal(t, types.ConflictResolution{SelectedClaimID: "c_2", SelectedLabel: "Feature flag"}, next.Resolutions[conflictFlags])
	assert.Equal(t, []string{`preferred "Feature flag" over "Harden first"`}, next.PathSteps)
}

// --- queries ---

func TestLiveForcingPoints(t *testing.T) {
	_, points, s := setup()

	assert.Equal(t, []string{gateBudget, gateScale, conflictShip, conflictFlags}, liveIDs(LiveForcingPoints(points, s)))

	// Pruning c_0 and c_1 makes both conflicts moot.
	s = ResolveConditional(s, points, gateBudget, false, nil)
	assert.Equal(t, []string{gateScale}, liveIDs(LiveForcingPoints(points, s)))
}

func TestGateMootWhenAllAffectedPruned(t *testing.T) {
	points := []types.ForcingPoint{
		types.ConditionalPoint{ID: "fp_cond_a", Pruner: types.ConditionalPruner{ID: "a", Question: "A?", AffectedClaims: []string{"c_0", "c_1"}}},
		types.ConditionalPoint{ID: "fp_cond_b", Pruner: types.ConditionalPruner{ID: "b", Question: "B?", AffectedClaims: []string{"c_1"}}},
	}
	s := types.TraversalState{ClaimStatuses: map[string]types.ClaimStatus{
		"c_0": types.ClaimActive,
		"c_1": types.ClaimPruned,
	}}

	assert.Equal(t, []string{"fp_cond_a"}, liveIDs(LiveForcingPoints(points, s)))
}

func TestIsComplete(t *testing.T) {
	_, points, s := setup()

	assert.True(t, IsComplete(nil, s), "vacuously complete")
	assert.True(t, IsComplete([]types.ForcingPoint{}, Init(nil)))
	assert.False(t, IsComplete(points, s))

	s = ResolveConditional(s, points, gateBudget, false, nil)
	assert.False(t, IsComplete(points, s))

	s = ResolveConditional(s, points, gateScale, true, nil)
	assert.True(t, IsComplete(points, s), "remaining conflicts are moot")
}

func TestIsCompleteAllResolved(t *testing.T) {
	_, points, s := setup()
	s = ResolveConditional(s, points, gateBudget, true, nil)
	s = ResolveConditional(s, points, gateScale, true, nil)
	s = ResolveConflict(s, points, conflictShip, "c_1", "")
	assert.False(t, IsComplete(points, s))
	s = ResolveConflict(s, points, conflictFlags, "c_1", "")
	assert.True(t, IsComplete(points, s))
}

func TestConflictStatus(t *testing.T) {
	_, points, s := setup()
	ship := points[2].(types.ConflictPoint)
	flags := points[3].(types.ConflictPoint)

	assert.Equal(t, types.StatusPending, ConflictStatus(ship, s))

	s = ResolveConflict(s, points, conflictFlags, "c_1", "")
	assert.Equal(t, types.StatusResolved, ConflictStatus(flags, s))

	s = ResolveConditional(s, points, gateBudget, false, nil)
	assert.Equal(t, types.StatusAutoResolved, ConflictStatus(ship, s))
	assert.Equal(t, types.StatusResolved, ConflictStatus(flags, s))
}

func TestFavoredClaims(t *testing.T) {
	g, points, s := setup()

	s = ResolveConflict(s, points, conflictShip, "c_0", "")
	s = ResolveConflict(s, points, conflictFlags, "c_1", "")
	assert.Equal(t, []string{"c_0", "c_3"}, claimIDs(FavoredClaims(g.Claims, points, s)))
	assert.Equal(t, []string{"c_0", "c_1", "c_2", "c_3"}, claimIDs(ActiveClaims(g.Claims, s)))
}

func TestBlockedClaims(t *testing.T) {
	_, points, s := setup()

	assert.Equal(t, []string{"c_0", "c_1", "c_3", "c_9"}, BlockedClaims(points, s))

	s = ResolveConditional(s, points, gateBudget, true, nil)
	assert.Equal(t, []string{"c_3", "c_9"}, BlockedClaims(points, s))
}

func TestPathSummary(t *testing.T) {
	_, points, s := setup()
	assert.Equal(t, "", PathSummary(s))

	s = ResolveConflict(s, points, conflictFlags, "c_2", "Flag it")
	s = ResolveConditional(s, points, gateScale, true, nil)
	s = ResolveConditional(s, points, gateBudget, false, nil)

	assert.Equal(t,
		"1. preferred \"Flag it\" over \"Harden first\"\n"+
			"2. More than 1k users? -> yes\n"+
			"3. Is there QA budget? -> no, pruned c_0, c_1",
		PathSummary(s))
}
