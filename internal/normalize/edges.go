// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// Edge types accepted on input. Everything folds into types.EdgeConflict.
const (
	edgeConflict  = "conflict"
	edgeConflicts = "conflicts"
	edgeTradeoff  = "tradeoff"
	edgeSupports  = "supports"
)

type rawEdge struct {
	From     string  `mapstructure:"from"`
	To       string  `mapstructure:"to"`
	Type     string  `mapstructure:"type"`
	Question *string `mapstructure:"question"`
}

type rawConditional struct {
	ID                  string   `mapstructure:"id"`
	Question            string   `mapstructure:"question"`
	AffectedClaims      []string `mapstructure:"affectedClaims"`
	AffectedClaimsSnake []string `mapstructure:"affected_claims"`
}

// explicitEdges sanitizes the edges array of the payload.
func (n *normalizer) explicitEdges(v any) []types.Edge {
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		n.warn("edges", "edges must be an array, got %s; ignored", describe(v))
		return nil
	}

	var out []types.Edge
	for i, item := range items {
		path := fmt.Sprintf("edges[%d]", i)

		obj, ok := item.(map[string]any)
		if !ok {
			n.warn(path, "edge must be an object, got %s; dropped", describe(item))
			continue
		}
		var re rawEdge
		if err := decode(obj, &re); err != nil {
			n.warn(path, "decoding edge: %v; dropped", err)
			continue
		}
		if e, ok := n.sanitizeEdge(path, re); ok {
			out = append(out, e)
		}
	}
	return out
}

// sanitizeEdge maps an input edge onto the canonical conflict edge or drops
// it with a warning. Supports edges are owned elsewhere and never pass.
func (n *normalizer) sanitizeEdge(path string, re rawEdge) (types.Edge, bool) {
	from := strings.TrimSpace(re.From)
	to := strings.TrimSpace(re.To)
	if from == "" || to == "" {
		n.warn(path, "edge is missing from or to; dropped")
		return types.Edge{}, false
	}

	var question *string
	switch t := strings.ToLower(strings.TrimSpace(re.Type)); t {
	case edgeConflict, edgeConflicts:
		if re.Question != nil {
			if q := strings.TrimSpace(*re.Question); q != "" {
				question = types.StringPtr(q)
			}
		}
	case edgeTradeoff:
		// Tradeoffs carry no decision question.
	case edgeSupports:
		n.warn(path+".type", "supports edges are not accepted; dropped")
		return types.Edge{}, false
	default:
		n.warn(path+".type", "unsupported edge type %q; dropped", re.Type)
		return types.Edge{}, false
	}

	switch {
	case from == to:
		n.warn(path, "self-referencing edge on %q; dropped", from)
		return types.Edge{}, false
	case !n.known(from):
		n.warn(path+".from", "unknown claim id %q; edge dropped", from)
		return types.Edge{}, false
	case !n.known(to):
		n.warn(path+".to", "unknown claim id %q; edge dropped", to)
		return types.Edge{}, false
	}

	return types.Edge{From: from, To: to, Type: types.EdgeConflict, Question: question}, true
}

// conditionals appends the explicit gates of the payload to those derived
// from extrinsic determinants. The result is never nil.
func (n *normalizer) conditionals(v any, derived []types.ConditionalPruner) []types.ConditionalPruner {
	out := make([]types.ConditionalPruner, 0, len(derived))
	out = append(out, derived...)

	if v == nil {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		n.warn("conditionals", "conditionals must be an array, got %s; ignored", describe(v))
		return out
	}

	for i, item := range items {
		path := fmt.Sprintf("conditionals[%d]", i)

		obj, ok := item.(map[string]any)
		if !ok {
			n.warn(path, "conditional must be an object, got %s; dropped", describe(item))
			continue
		}
		var rc rawConditional
		if err := decode(obj, &rc); err != nil {
			n.warn(path, "decoding conditional: %v; dropped", err)
			continue
		}

		question := strings.TrimSpace(rc.Question)
		if question == "" {
			n.warn(path+".question", "conditional has no question; dropped")
			continue
		}

		affected := rc.AffectedClaims
		if len(affected) == 0 {
			affected = rc.AffectedClaimsSnake
		}
		ids := n.knownIDs(path+".affectedClaims", dedupe(affected))
		if len(ids) == 0 {
			n.warn(path+".affectedClaims", "conditional affects no known claims; dropped")
			continue
		}

		id := strings.TrimSpace(rc.ID)
		if id == "" {
			id = fmt.Sprintf("cond_%d", i)
		}
		gate := types.ConditionalPruner{ID: id, Question: question, AffectedClaims: ids}
		if slices.ContainsFunc(derived, func(d types.ConditionalPruner) bool { return sameGate(d, gate) }) {
			continue
		}
		if !n.claimGateID(path+".id", id) {
			continue
		}

		out = append(out, gate)
	}
	return out
}

// sameGate reports whether a and b are the same gate, as when a derived
// gate is written back into the conditionals of a re-normalized graph.
func sameGate(a, b types.ConditionalPruner) bool {
	return a.ID == b.ID && a.Question == b.Question && slices.Equal(a.AffectedClaims, b.AffectedClaims)
}
