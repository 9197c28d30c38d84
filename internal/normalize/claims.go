// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/claimgraph/pkg/types"
)

// claimIDPrefix is the conventional claim id prefix. Other ids are kept but
// flagged.
const claimIDPrefix = "c_"

// rawClaim holds the required fields of a claim as it arrives from the
// model. Optional fields (supporters, type, role, challenges) are read from
// the raw object separately so a malformed value can be defaulted instead
// of failing the decode.
type rawClaim struct {
	ID    string `mapstructure:"id" validate:"required"`
	Label string `mapstructure:"label" validate:"required"`
	Text  string `mapstructure:"text" validate:"required"`
}

// claims validates the claims array and records every accepted id in
// claimIndex. Field errors are accumulated, never short-circuited.
func (n *normalizer) claims(v any, present bool) []types.Claim {
	if !present {
		n.fail("claims", "claims array is missing")
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		n.fail("claims", "claims must be an array, got %s", describe(v))
		return nil
	}

	out := make([]types.Claim, 0, len(items))
	var (
		paths      []string
		roles      []string
		challenges []string
	)

	for i, item := range items {
		path := fmt.Sprintf("claims[%d]", i)

		obj, ok := item.(map[string]any)
		if !ok {
			n.fail(path, "claim must be an object, got %s", describe(item))
			continue
		}

		var rc rawClaim
		if err := decode(obj, &rc); err != nil {
			n.fail(path, "decoding claim: %v", err)
			continue
		}
		rc.ID = strings.TrimSpace(rc.ID)
		rc.Label = strings.TrimSpace(rc.Label)
		rc.Text = strings.TrimSpace(rc.Text)

		if err := validate.Struct(rc); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					n.fail(path+"."+fe.Field(), "required field is missing or empty")
				}
			} else {
				n.fail(path, "validating claim: %v", err)
			}
			continue
		}

		if _, dup := n.claimIndex[rc.ID]; dup {
			n.fail(path+".id", "duplicate claim id %q", rc.ID)
			continue
		}
		n.claimIndex[rc.ID] = len(out)

		if !strings.HasPrefix(rc.ID, claimIDPrefix) {
			n.warn(path+".id", "claim id %q does not use the %q prefix", rc.ID, claimIDPrefix)
		}

		sup, ok := supporters(obj["supporters"])
		if !ok {
			n.warn(path+".supporters", "supporters is not an array of integers, defaulting to []")
		}

		out = append(out, types.Claim{
			ID:         rc.ID,
			Label:      rc.Label,
			Text:       rc.Text,
			Supporters: sup,
			Type:       n.claimType(path, n.optionalString(obj, path, "type")),
		})
		paths = append(paths, path)
		roles = append(roles, n.optionalString(obj, path, "role"))
		challenges = append(challenges, strings.TrimSpace(n.optionalString(obj, path, "challenges")))
	}

	if len(n.errors) > 0 {
		return nil
	}

	// Challenges can point forward, so they are resolved once every id is known.
	for i := range out {
		if ch := challenges[i]; ch != "" {
			switch {
			case ch == out[i].ID:
				n.warn(paths[i]+".challenges", "claim cannot challenge itself")
			case !n.known(ch):
				n.warn(paths[i]+".challenges", "challenged claim %q does not exist", ch)
			default:
				out[i].Challenges = types.StringPtr(ch)
			}
		}
		out[i].Role = n.claimRole(paths[i], roles[i], out[i].Challenges != nil)
	}

	return out
}

// optionalString reads obj[key] as a string. An absent or null value is
// "". Any other non-string value is reported and read as "", so the caller
// applies its default.
func (n *normalizer) optionalString(obj map[string]any, path, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		n.warn(path+"."+key, "%s must be a string, got %s; using the default", key, describe(v))
		return ""
	}
}

func (n *normalizer) claimType(path, raw string) types.ClaimType {
	t := types.ClaimType(strings.ToLower(strings.TrimSpace(raw)))
	switch {
	case t == "":
		return types.ClaimFactual
	case !types.ValidClaimTypes[t]:
		n.warn(path+".type", "unknown claim type %q, defaulting to %q", raw, types.ClaimFactual)
		return types.ClaimFactual
	}
	return t
}

func (n *normalizer) claimRole(path, raw string, challenges bool) types.ClaimRole {
	def := types.RoleBranch
	if challenges {
		def = types.RoleChallenger
	}
	r := types.ClaimRole(strings.ToLower(strings.TrimSpace(raw)))
	switch {
	case r == "":
		return def
	case !types.ValidClaimRoles[r]:
		n.warn(path+".role", "unknown claim role %q, defaulting to %q", raw, def)
		return def
	}
	return r
}

// supporters reads a list of model indices. Anything other than an array
// of integers yields an empty list and false. Repeated indices are dropped.
func supporters(v any) ([]int, bool) {
	var vals []any
	switch s := v.(type) {
	case []any:
		vals = s
	case []int:
		vals = make([]any, len(s))
		for i, x := range s {
			vals[i] = x
		}
	default:
		return []int{}, false
	}

	out := make([]int, 0, len(vals))
	seen := make(map[int]bool, len(vals))
	for _, x := range vals {
		var idx int
		switch n := x.(type) {
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return []int{}, false
			}
			idx = int(n)
		case int:
			idx = n
		case int64:
			idx = int(n)
		default:
			return []int{}, false
		}
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}
	return out, true
}
