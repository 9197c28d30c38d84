// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package traversal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// Serialize flattens s into its transport form. Status and resolution
// entries are sorted by id; path steps keep their order.
func Serialize(s types.TraversalState) types.SerializedState {
	out := types.SerializedState{
		ClaimStatuses: make([]types.StatusEntry, 0, len(s.ClaimStatuses)),
		Resolutions:   make([]types.ResolutionEntry, 0, len(s.Resolutions)),
		PathSteps:     make([]string, len(s.PathSteps)),
	}

	for _, id := range sortedKeys(s.ClaimStatuses) {
		out.ClaimStatuses = append(out.ClaimStatuses, types.StatusEntry{ClaimID: id, Status: s.ClaimStatuses[id]})
	}
	for _, id := range sortedKeys(s.Resolutions) {
		out.Resolutions = append(out.Resolutions, types.ResolutionEntry{ForcingPointID: id, Resolution: s.Resolutions[id]})
	}
	copy(out.PathSteps, s.PathSteps)
	return out
}

// Marshal encodes s as serialized-state JSON.
func Marshal(s types.TraversalState) ([]byte, error) {
	data, err := json.Marshal(Serialize(s))
	if err != nil {
		return nil, fmt.Errorf("marshaling traversal state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON produced by Marshal or by an older encoder. It
// reports false when data is not a JSON object.
func Unmarshal(data []byte) (types.TraversalState, bool) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.TraversalState{}, false
	}
	return Deserialize(raw)
}

// Deserialize rebuilds a state from raw, which is usually decoded JSON.
//
// claimStatuses may be an array of [id, status] pairs, an id->status
// object, or a Go map; every status other than "pruned" reads as active.
// Malformed resolutions, path steps, or individual entries are dropped.
// It reports false only when raw is not an object.
func Deserialize(raw any) (types.TraversalState, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return types.TraversalState{}, false
	}

	return types.TraversalState{
		ClaimStatuses: decodeStatuses(obj["claimStatuses"]),
		Resolutions:   decodeResolutions(obj["resolutions"]),
		PathSteps:     decodePathSteps(obj["pathSteps"]),
	}, true
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case types.SerializedState, *types.SerializedState:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, false
		}
		return obj, true
	default:
		return nil, false
	}
}

func decodeStatuses(v any) map[string]types.ClaimStatus {
	out := make(map[string]types.ClaimStatus)
	switch cs := v.(type) {
	case []any:
		for _, entry := range cs {
			pair, ok := entry.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			id, ok := pair[0].(string)
			if !ok || id == "" {
				continue
			}
			out[id] = toStatus(pair[1])
		}
	case map[string]any:
		for id, st := range cs {
			out[id] = toStatus(st)
		}
	case map[string]string:
		for id, st := range cs {
			out[id] = toStatus(st)
		}
	case map[string]types.ClaimStatus:
		for id, st := range cs {
			out[id] = toStatus(string(st))
		}
	}
	return out
}

func toStatus(v any) types.ClaimStatus {
	if s, ok := v.(string); ok && types.ClaimStatus(s) == types.ClaimPruned {
		return types.ClaimPruned
	}
	return types.ClaimActive
}

func decodeResolutions(v any) map[string]types.Resolution {
	out := make(map[string]types.Resolution)
	switch rs := v.(type) {
	case []any:
		for _, entry := range rs {
			pair, ok := entry.([]any)
			if !ok || len(pair) < 2 {
				continue
			}
			id, ok := pair[0].(string)
			if !ok || id == "" {
				continue
			}
			if r, ok := toResolution(pair[1]); ok {
				out[id] = r
			}
		}
	case map[string]any:
		for id, r := range rs {
			if res, ok := toResolution(r); ok {
				out[id] = res
			}
		}
	case map[string]types.Resolution:
		for id, r := range rs {
			if res, ok := toResolution(r); ok {
				out[id] = res
			}
		}
	}
	return out
}

// toResolution accepts a typed resolution or its JSON object form. The
// variant comes from "type" when present, else from the fields it carries.
func toResolution(v any) (types.Resolution, bool) {
	switch r := v.(type) {
	case types.ConditionalResolution:
		return r, true
	case types.ConflictResolution:
		return r, true
	case map[string]any:
		kind, _ := r["type"].(string)
		if kind == "" {
			switch {
			case r["satisfied"] != nil:
				kind = string(types.ResolutionConditional)
			case r["selectedClaimId"] != nil:
				kind = string(types.ResolutionConflict)
			}
		}

		switch types.ResolutionKind(kind) {
		case types.ResolutionConditional:
			satisfied, ok := r["satisfied"].(bool)
			if !ok {
				return nil, false
			}
			res := types.ConditionalResolution{Satisfied: satisfied}
			if input := firstString(r, "userInput", "user_input"); input != "" {
				res.UserInput = types.StringPtr(input)
			}
			return res, true
		case types.ResolutionConflict:
			id := firstString(r, "selectedClaimId", "selected_claim_id")
			if id == "" {
				return nil, false
			}
			return types.ConflictResolution{
				SelectedClaimID: id,
				SelectedLabel:   firstString(r, "selectedLabel", "selected_label"),
			}, true
		}
	}
	return nil, false
}

func decodePathSteps(v any) []string {
	out := []string{}
	switch ps := v.(type) {
	case []any:
		for _, step := range ps {
			if s, ok := step.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, ps...)
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
