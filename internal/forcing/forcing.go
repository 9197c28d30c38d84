// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package forcing derives the ordered decision points of a canonical graph.
//
// The derivation is a pure function of the graph: the same graph always
// yields the same points with the same ids. Ids are therefore only
// meaningful within one graph generation, identified by Fingerprint.
package forcing

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// Id prefixes of derived forcing points.
const (
	conditionalPrefix = "fp_cond_"
	conflictPrefix    = "fp_conflict_"
)

// Extract returns one tier-0 point per gate, in gate order, followed by one
// tier-2 point per unordered pair of claims joined by a conflict edge, in
// edge order. When several edges join the same pair the first one wins.
// Point ids are unique within the result.
func Extract(g *types.Graph) []types.ForcingPoint {
	if g == nil {
		return nil
	}

	points := make([]types.ForcingPoint, 0, len(g.Conditionals)+len(g.Edges))

	for _, gate := range g.Conditionals {
		affected := make([]string, len(gate.AffectedClaims))
		copy(affected, gate.AffectedClaims)
		points = append(points, types.ConditionalPoint{
			ID:   conditionalPrefix + gate.ID,
			Tier: types.TierConditional,
			Pruner: types.ConditionalPruner{
				ID:             gate.ID,
				Question:       gate.Question,
				AffectedClaims: affected,
			},
		})
	}

	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		if e.Type != types.EdgeConflict || e.From == e.To {
			continue
		}
		key := pairKey(e.From, e.To)
		if seen[key] {
			continue
		}
		seen[key] = true

		var question *string
		if e.Question != nil {
			question = types.StringPtr(*e.Question)
		}
		points = append(points, types.ConflictPoint{
			ID:       conflictPrefix + e.From + "_" + e.To,
			Tier:     types.TierConflict,
			Question: question,
			Options: [2]types.ConflictOption{
				{ClaimID: e.From, Label: claimLabel(g, e.From)},
				{ClaimID: e.To, Label: claimLabel(g, e.To)},
			},
			Status: types.StatusPending,
		})
	}

	uniqueConflictIDs(points)
	return points
}

// uniqueConflictIDs suffixes conflict ids that two different claim pairs
// spell the same way, which happens when claim ids contain "_". The suffix
// is a short hash of the ordered pair, so it depends only on the graph.
func uniqueConflictIDs(points []types.ForcingPoint) {
	count := make(map[string]int, len(points))
	taken := make(map[string]bool, len(points))
	for _, p := range points {
		count[p.PointID()]++
		taken[p.PointID()] = true
	}

	for i, p := range points {
		conflict, ok := p.(types.ConflictPoint)
		if !ok || count[conflict.ID] < 2 {
			continue
		}
		sum := sha256.Sum256([]byte(conflict.Options[0].ClaimID + "\x00" + conflict.Options[1].ClaimID))
		id := fmt.Sprintf("%s_%x", conflict.ID, sum[:4])
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%x_%d", conflict.ID, sum[:4], n)
		}
		taken[id] = true
		conflict.ID = id
		points[i] = conflict
	}
}

// Find returns the point with the given id.
func Find(points []types.ForcingPoint, id string) (types.ForcingPoint, bool) {
	for _, p := range points {
		if p.PointID() == id {
			return p, true
		}
	}
	return nil, false
}

// Fingerprint returns the hex SHA-256 of the graph's canonical JSON. Two
// graphs with the same fingerprint produce the same forcing points.
func Fingerprint(g *types.Graph) string {
	if g == nil {
		return ""
	}
	data, err := json.Marshal(g)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func claimLabel(g *types.Graph, id string) string {
	if c, ok := g.Claim(id); ok {
		return c.Label
	}
	return id
}
