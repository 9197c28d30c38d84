// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package traversal

import (
	"fmt"
	"strings"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// StatusOf returns the status of claim id, defaulting to active.
func StatusOf(s types.TraversalState, id string) types.ClaimStatus {
	if st, ok := s.ClaimStatuses[id]; ok {
		return st
	}
	return types.ClaimActive
}

// GetResolution returns the recorded resolution of fpID.
func GetResolution(s types.TraversalState, fpID string) (types.Resolution, bool) {
	r, ok := s.Resolutions[fpID]
	return r, ok
}

// IsMoot reports whether pruning has made p irrelevant: a gate whose
// affected claims are all pruned, or a conflict with a pruned option.
func IsMoot(p types.ForcingPoint, s types.TraversalState) bool {
	switch p := p.(type) {
	case types.ConditionalPoint:
		if len(p.Pruner.AffectedClaims) == 0 {
			return true
		}
		for _, id := range p.Pruner.AffectedClaims {
			if StatusOf(s, id) != types.ClaimPruned {
				return false
			}
		}
		return true
	case types.ConflictPoint:
		return StatusOf(s, p.Options[0].ClaimID) == types.ClaimPruned ||
			StatusOf(s, p.Options[1].ClaimID) == types.ClaimPruned
	default:
		return false
	}
}

// LiveForcingPoints returns the points that are unresolved and not moot,
// in their original order.
func LiveForcingPoints(points []types.ForcingPoint, s types.TraversalState) []types.ForcingPoint {
	var live []types.ForcingPoint
	for _, p := range points {
		if _, resolved := s.Resolutions[p.PointID()]; resolved {
			continue
		}
		if IsMoot(p, s) {
			continue
		}
		live = append(live, p)
	}
	return live
}

// IsComplete reports whether no point is live. It is true for an empty
// point set.
func IsComplete(points []types.ForcingPoint, s types.TraversalState) bool {
	return len(LiveForcingPoints(points, s)) == 0
}

// ConflictStatus derives the lifecycle status of a conflict point.
func ConflictStatus(p types.ConflictPoint, s types.TraversalState) types.ConflictStatus {
	if _, ok := s.Resolutions[p.ID]; ok {
		return types.StatusResolved
	}
	if IsMoot(p, s) {
		return types.StatusAutoResolved
	}
	return types.StatusPending
}

// ActiveClaims returns the claims whose status is active.
func ActiveClaims(claims []types.Claim, s types.TraversalState) []types.Claim {
	var out []types.Claim
	for _, c := range claims {
		if StatusOf(s, c.ID) == types.ClaimActive {
			out = append(out, c)
		}
	}
	return out
}

// FavoredClaims returns the active claims minus the unselected side of
// every resolved conflict.
func FavoredClaims(claims []types.Claim, points []types.ForcingPoint, s types.TraversalState) []types.Claim {
	passedOver := make(map[string]bool)
	for _, p := range points {
		conflict, ok := p.(types.ConflictPoint)
		if !ok {
			continue
		}
		res, ok := s.Resolutions[conflict.ID].(types.ConflictResolution)
		if !ok {
			continue
		}
		if _, isOption := conflict.Option(res.SelectedClaimID); !isOption {
			continue
		}
		passedOver[conflict.Other(res.SelectedClaimID).ClaimID] = true
	}

	var out []types.Claim
	for _, c := range ActiveClaims(claims, s) {
		if !passedOver[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// BlockedClaims returns the active claims that sit behind a live gate, in
// gate order. These are the claims a presentation layer shows as
// unavailable; their status is not changed.
func BlockedClaims(points []types.ForcingPoint, s types.TraversalState) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range LiveForcingPoints(points, s) {
		gate, ok := p.(types.ConditionalPoint)
		if !ok {
			continue
		}
		for _, id := range gate.Pruner.AffectedClaims {
			if seen[id] || StatusOf(s, id) != types.ClaimActive {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// PathSummary renders the decision log as numbered lines in the order the
// decisions were made. It returns "" for an empty log.
func PathSummary(s types.TraversalState) string {
	var b strings.Builder
	for i, step := range s.PathSteps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step)
	}
	return b.String()
}
