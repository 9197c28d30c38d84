// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pdiddy/claimgraph/pkg/types"
)

type rawDeterminant struct {
	Type     string         `mapstructure:"type"`
	ID       string         `mapstructure:"id"`
	Fork     string         `mapstructure:"fork"`
	Hinge    string         `mapstructure:"hinge"`
	Question string         `mapstructure:"question"`
	Claims   []string       `mapstructure:"claims"`
	Paths    map[string]any `mapstructure:"paths"`
	YesMeans string         `mapstructure:"yes_means"`
	NoMeans  string         `mapstructure:"no_means"`
}

// determinants compiles the determinant list. Intrinsic determinants yield
// one conflict edge per unordered pair of their claims; extrinsic ones yield
// exactly one gate. The result depends only on the determinant list and the
// declared claims, never on explicit edges.
func (n *normalizer) determinants(v any) (types.DeterminantList, []rawEdge, []types.ConditionalPruner) {
	if v == nil {
		return nil, nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		n.warn("determinants", "determinants must be an array, got %s; ignored", describe(v))
		return nil, nil, nil
	}

	var (
		dets  types.DeterminantList
		edges []rawEdge
		gates []types.ConditionalPruner
	)

	for i, item := range items {
		path := fmt.Sprintf("determinants[%d]", i)

		obj, ok := item.(map[string]any)
		if !ok {
			n.warn(path, "determinant must be an object, got %s; skipped", describe(item))
			continue
		}
		var rd rawDeterminant
		if err := decode(obj, &rd); err != nil {
			n.warn(path, "decoding determinant: %v; skipped", err)
			continue
		}

		question := strings.TrimSpace(rd.Question)
		kind := types.DeterminantKind(strings.ToLower(strings.TrimSpace(rd.Type)))

		switch kind {
		case types.DeterminantIntrinsic:
			if question == "" {
				n.warn(path+".question", "intrinsic determinant has no question; skipped")
				continue
			}

			ids := rd.Claims
			if len(rd.Paths) > 0 {
				ids = make([]string, 0, len(rd.Paths))
				for id := range rd.Paths {
					ids = append(ids, id)
				}
			}
			ids = n.knownIDs(path, dedupe(ids))
			n.sortByDeclaration(ids)

			if len(ids) < 2 {
				n.warn(path, "intrinsic determinant has %d known claim(s), needs at least 2; no edges derived", len(ids))
			}
			for a := 0; a < len(ids); a++ {
				for b := a + 1; b < len(ids); b++ {
					edges = append(edges, rawEdge{
						From:     ids[a],
						To:       ids[b],
						Type:     string(types.EdgeConflict),
						Question: types.StringPtr(question),
					})
				}
			}

			dets = append(dets, types.IntrinsicDeterminant{
				Fork:     strings.TrimSpace(rd.Fork),
				Hinge:    strings.TrimSpace(rd.Hinge),
				Question: question,
				Claims:   ids,
				Paths:    pathOutcomes(rd.Paths, ids),
			})

		case types.DeterminantExtrinsic:
			if question == "" {
				n.warn(path+".question", "extrinsic determinant has no question; skipped")
				continue
			}
			ids := n.knownIDs(path, dedupe(rd.Claims))
			if len(ids) == 0 {
				n.warn(path+".claims", "extrinsic determinant has no known claims; skipped")
				continue
			}

			id := strings.TrimSpace(rd.ID)
			if id == "" {
				id = fmt.Sprintf("det_ext_%d", i)
			}
			if !n.claimGateID(path+".id", id) {
				continue
			}

			gates = append(gates, types.ConditionalPruner{
				ID:             id,
				Question:       question,
				AffectedClaims: ids,
			})
			dets = append(dets, types.ExtrinsicDeterminant{
				ID:       id,
				Fork:     strings.TrimSpace(rd.Fork),
				Hinge:    strings.TrimSpace(rd.Hinge),
				Question: question,
				Claims:   ids,
				YesMeans: strings.TrimSpace(rd.YesMeans),
				NoMeans:  strings.TrimSpace(rd.NoMeans),
			})

		default:
			n.warn(path+".type", "unknown determinant type %q; skipped", rd.Type)
		}
	}

	return dets, edges, gates
}

// sortByDeclaration orders known claim ids as their claims were declared.
func (n *normalizer) sortByDeclaration(ids []string) {
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(n.claimIndex[a], n.claimIndex[b])
	})
}

// pathOutcomes keeps the outcome text for each retained claim id.
func pathOutcomes(paths map[string]any, ids []string) map[string]string {
	if len(paths) == 0 {
		return nil
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		switch v := paths[id].(type) {
		case string:
			out[id] = strings.TrimSpace(v)
		case nil:
			out[id] = ""
		default:
			out[id] = fmt.Sprint(v)
		}
	}
	return out
}
