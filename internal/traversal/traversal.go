// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package traversal tracks a user's progress through the forcing points of
// one graph generation.
//
// Every function is a pure reducer or query over types.TraversalState. The
// input state is never modified; reducers return a new value. Claims move
// active -> pruned only, and only when a gate is answered "no". A conflict
// resolution records a preference and prunes nothing. Ids that do not name
// a point of the right kind are ignored, so stale ids from a replaced graph
// are harmless.
package traversal

import (
	"fmt"
	"strings"

	"github.com/pdiddy/claimgraph/internal/forcing"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// Init returns the initial state for g: every referenced claim active, no
// resolutions, and an empty path.
func Init(g *types.Graph) types.TraversalState {
	s := types.TraversalState{
		ClaimStatuses: make(map[string]types.ClaimStatus),
		Resolutions:   make(map[string]types.Resolution),
		PathSteps:     []string{},
	}
	if g == nil {
		return s
	}
	for _, id := range g.ReferencedClaimIDs() {
		s.ClaimStatuses[id] = types.ClaimActive
	}
	return s
}

// Reconcile returns s with an active entry added for every claim of g that
// s does not mention. Existing entries are kept as they are.
func Reconcile(g *types.Graph, s types.TraversalState) types.TraversalState {
	next := s.Clone()
	if g == nil {
		return next
	}
	for _, id := range g.ReferencedClaimIDs() {
		if _, ok := next.ClaimStatuses[id]; !ok {
			next.ClaimStatuses[id] = types.ClaimActive
		}
	}
	return next
}

// ResolveConditional answers the gate fpID. When satisfied is false every
// affected claim is pruned. Pruning is permanent: answering the same gate
// "yes" later records the new answer but restores nothing.
func ResolveConditional(s types.TraversalState, points []types.ForcingPoint, fpID string, satisfied bool, userInput *string) types.TraversalState {
	p, ok := forcing.Find(points, fpID)
	if !ok {
		return s.Clone()
	}
	gate, ok := p.(types.ConditionalPoint)
	if !ok {
		return s.Clone()
	}

	next := s.Clone()

	var input *string
	if userInput != nil {
		if trimmed := strings.TrimSpace(*userInput); trimmed != "" {
			input = types.StringPtr(trimmed)
		}
	}
	next.Resolutions[fpID] = types.ConditionalResolution{Satisfied: satisfied, UserInput: input}

	if !satisfied {
		for _, id := range gate.Pruner.AffectedClaims {
			next.ClaimStatuses[id] = types.ClaimPruned
		}
	}

	next.PathSteps = append(next.PathSteps, conditionalStep(gate, satisfied, input))
	return next
}

// ResolveConflict records selectedClaimID as the preferred side of the
// conflict fpID. The other side stays active; FavoredClaims is where the
// preference takes effect. An empty selectedLabel falls back to the
// option's label.
func ResolveConflict(s types.TraversalState, points []types.ForcingPoint, fpID, selectedClaimID, selectedLabel string) types.TraversalState {
	p, ok := forcing.Find(points, fpID)
	if !ok {
		return s.Clone()
	}
	conflict, ok := p.(types.ConflictPoint)
	if !ok {
		return s.Clone()
	}
	selected, ok := conflict.Option(selectedClaimID)
	if !ok {
		return s.Clone()
	}

	label := strings.TrimSpace(selectedLabel)
	if label == "" {
		label = selected.Label
	}

	next := s.Clone()
	next.Resolutions[fpID] = types.ConflictResolution{SelectedClaimID: selected.ClaimID, SelectedLabel: label}
	next.PathSteps = append(next.PathSteps, conflictStep(conflict, label, conflict.Other(selected.ClaimID)))
	return next
}

func conditionalStep(gate types.ConditionalPoint, satisfied bool, input *string) string {
	answer := "yes"
	if !satisfied {
		answer = fmt.Sprintf("no, pruned %s", strings.Join(gate.Pruner.AffectedClaims, ", "))
	}
	step := fmt.Sprintf("%s -> %s", gate.Pruner.Question, answer)
	if input != nil {
		step += fmt.Sprintf(" (%q)", *input)
	}
	return step
}

func conflictStep(conflict types.ConflictPoint, label string, other types.ConflictOption) string {
	step := fmt.Sprintf("preferred %q over %q", label, other.Label)
	if conflict.Question != nil {
		step = fmt.Sprintf("%s -> %s", *conflict.Question, step)
	}
	return step
}
