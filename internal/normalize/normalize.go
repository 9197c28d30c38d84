// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize validates the raw payload of one mapping round and
// derives the canonical claim graph from it.
//
// Defects are reported as values, never panics. A missing required claim
// field, a duplicate claim id, or an absent claims array fails the round;
// every other defect becomes a quality warning attached to a successful
// result. Field errors are accumulated across the whole claims array so a
// caller sees the complete list in one pass.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/pdiddy/claimgraph/internal/extract"
	"github.com/pdiddy/claimgraph/pkg/types"
)

// IssueKind classifies a defect found while normalizing.
type IssueKind string

const (
	// KindParse means no structured payload was found. It is terminal and
	// always the only error.
	KindParse IssueKind = "parse"

	// KindField is a structural claim defect. It fails the round.
	KindField IssueKind = "field"

	// KindQuality is a non-fatal defect. The offending value was dropped or
	// defaulted.
	KindQuality IssueKind = "quality"
)

// Issue is one defect, located by a JSON-path-like Path such as
// "claims[2].label".
type Issue struct {
	Kind    IssueKind `json:"kind" yaml:"kind"`
	Path    string    `json:"path,omitempty" yaml:"path,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

func (i Issue) Error() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Result is the outcome of one normalization.
type Result struct {
	Success bool         `json:"success" yaml:"success"`
	Output  *types.Graph `json:"output,omitempty" yaml:"output,omitempty"`

	// Narrative is the prose that accompanied the payload, if any.
	Narrative string `json:"narrative,omitempty" yaml:"narrative,omitempty"`

	Errors   []Issue `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Err joins Errors into a single error, or returns nil on success.
func (r Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, issue := range r.Errors {
		errs[i] = issue
	}
	return errors.Join(errs...)
}

// NormalizeText splits a model response into map and narrative and
// normalizes the map. A response without any structured payload yields a
// single parse error.
func NormalizeText(text string) Result {
	parsed := extract.ParseUnifiedOutput(text)
	if !parsed.Map.Found() {
		return Result{
			Narrative: parsed.Narrative,
			Errors:    []Issue{{Kind: KindParse, Message: "no structured payload found in model output"}},
		}
	}

	res := Normalize(parsed.Map.Value)
	if parsed.Narrative != "" {
		res.Narrative = parsed.Narrative
	}
	return res
}

// Normalize validates raw and compiles it into a canonical graph. raw is
// normally the map[string]any produced by the extractor; other values are
// converted through their JSON form.
func Normalize(raw any) Result {
	obj, ok := asObject(raw)
	if !ok {
		return Result{Errors: []Issue{{Kind: KindParse, Message: fmt.Sprintf("payload is %s, not an object", describe(raw))}}}
	}

	n := &normalizer{
		claimIndex: make(map[string]int),
		gateIDs:    make(map[string]bool),
	}
	narrative, _ := obj["narrative"].(string)
	narrative = strings.TrimSpace(narrative)

	claims := n.claims(obj["claims"], hasKey(obj, "claims"))
	if len(n.errors) > 0 {
		return Result{Narrative: narrative, Errors: n.errors, Warnings: n.warnings}
	}

	dets, derivedEdges, derivedGates := n.determinants(obj["determinants"])

	edges := make([]types.Edge, 0, len(derivedEdges))
	for i, re := range derivedEdges {
		if e, ok := n.sanitizeEdge(fmt.Sprintf("derived_edges[%d]", i), re); ok {
			edges = append(edges, e)
		}
	}
	derived := make(map[string]bool, len(edges))
	for _, e := range edges {
		derived[edgeKey(e)] = true
	}
	// An explicit edge identical to a derived one is the same edge written
	// back, as in a graph that is normalized again.
	for _, e := range n.explicitEdges(obj["edges"]) {
		if !derived[edgeKey(e)] {
			edges = append(edges, e)
		}
	}

	gates := n.conditionals(obj["conditionals"], derivedGates)

	return Result{
		Success: true,
		Output: &types.Graph{
			Claims:       claims,
			Determinants: dets,
			Edges:        edges,
			Conditionals: gates,
		},
		Narrative: narrative,
		Warnings:  n.warnings,
	}
}

// normalizer accumulates issues and the claim id index for one call.
type normalizer struct {
	errors   []Issue
	warnings []Issue

	// claimIndex maps claim id to declaration order.
	claimIndex map[string]int

	// gateIDs holds every gate id accepted so far, derived or explicit.
	gateIDs map[string]bool
}

func (n *normalizer) fail(path, format string, args ...any) {
	n.errors = append(n.errors, Issue{Kind: KindField, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) warn(path, format string, args ...any) {
	n.warnings = append(n.warnings, Issue{Kind: KindQuality, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (n *normalizer) known(id string) bool {
	_, ok := n.claimIndex[id]
	return ok
}

// claimGateID reserves a gate id, warning when it is already taken.
func (n *normalizer) claimGateID(path, id string) bool {
	if n.gateIDs[id] {
		n.warn(path, "duplicate gate id %q; dropped", id)
		return false
	}
	n.gateIDs[id] = true
	return true
}

func edgeKey(e types.Edge) string {
	q := "\x01"
	if e.Question != nil {
		q = *e.Question
	}
	return e.From + "\x00" + e.To + "\x00" + q
}

// --- decoding helpers ---

// validate checks required fields on decoded records. Field names in
// reported errors follow the mapstructure tags, i.e. the input keys.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// decode copies a raw JSON object into out with weak typing, so numeric ids
// become strings and a lone string becomes a one-element slice.
func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	return dec.Decode(input)
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case string, []any, bool, float64:
		return nil, false
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func hasKey(obj map[string]any, key string) bool {
	v, ok := obj[key]
	return ok && v != nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// dedupe drops empty and repeated ids, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// knownIDs keeps the ids that name a declared claim, warning for each one
// it drops.
func (n *normalizer) knownIDs(path string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !n.known(id) {
			n.warn(path, "unknown claim id %q dropped", id)
			continue
		}
		out = append(out, id)
	}
	return out
}
