// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract locates and parses the structured payload that a text
// generation model embeds in otherwise free-form output.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/claimgraph/internal/repair"
)

// Provenance records which strategy produced a payload.
type Provenance string

const (
	ProvenanceDirect     Provenance = "direct"
	ProvenanceRepaired   Provenance = "repaired"
	ProvenanceCodeBlock  Provenance = "code_block"
	ProvenanceBraceMatch Provenance = "brace_match"
	ProvenanceNone       Provenance = "none"
)

// Result is the outcome of Extract.
type Result struct {
	// Value is the decoded payload (map[string]any, []any, or a scalar), or
	// nil when Provenance is ProvenanceNone.
	Value any

	Provenance Provenance

	// Start and End are byte offsets of the region the payload was taken
	// from. For code blocks the region includes the fences. Both are zero
	// when nothing was found.
	Start int
	End   int
}

// Found reports whether a payload was extracted.
func (r Result) Found() bool {
	return r.Provenance != ProvenanceNone
}

// Object returns the payload as a JSON object.
func (r Result) Object() (map[string]any, bool) {
	m, ok := r.Value.(map[string]any)
	return m, ok
}

// codeFence matches a fenced block with an optional language tag. The
// first submatch is the block body.
var codeFence = regexp.MustCompile("(?s)```[\\w+.-]*[ \\t]*\\r?\\n?(.*?)```")

// Extract tries, in order: the whole trimmed text (then its repair), each
// fenced code block (whole body, then the first parseable balanced object
// inside it), and finally the first parseable balanced object anywhere in
// the text. It short-circuits on the first success.
func Extract(text string) Result {
	if v, prov, ok := parseOrRepair(text); ok {
		start, end := trimmedBounds(text, 0, len(text))
		return Result{Value: v, Provenance: prov, Start: start, End: end}
	}

	for _, m := range codeFence.FindAllStringSubmatchIndex(text, -1) {
		body := text[m[2]:m[3]]
		if v, _, ok := parseOrRepair(body); ok {
			return Result{Value: v, Provenance: ProvenanceCodeBlock, Start: m[0], End: m[1]}
		}
		if v, _, _, ok := firstBalancedObject(body); ok {
			return Result{Value: v, Provenance: ProvenanceCodeBlock, Start: m[0], End: m[1]}
		}
	}

	if v, start, end, ok := firstBalancedObject(text); ok {
		return Result{Value: v, Provenance: ProvenanceBraceMatch, Start: start, End: end}
	}

	return Result{Provenance: ProvenanceNone}
}

// parseOrRepair parses the trimmed text, retrying once on its repaired form.
func parseOrRepair(text string) (any, Provenance, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ProvenanceNone, false
	}
	if v, ok := parse(trimmed); ok {
		return v, ProvenanceDirect, true
	}
	if v, ok := parse(repair.Repair(trimmed)); ok {
		return v, ProvenanceRepaired, true
	}
	return nil, ProvenanceNone, false
}

// parse decodes a complete JSON document. A literal null counts as failure.
func parse(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, v != nil
}

// firstBalancedObject scans for balanced {...} spans, quote-aware, and
// returns the first one that parses directly or after repair. When a span
// does not parse the scan resumes at the next opening brace after its start.
func firstBalancedObject(text string) (any, int, int, bool) {
	for from := 0; from < len(text); {
		rel := strings.IndexByte(text[from:], '{')
		if rel < 0 {
			break
		}
		start := from + rel
		if end, ok := matchBrace(text, start); ok {
			if v, _, ok := parseOrRepair(text[start:end]); ok {
				return v, start, end, true
			}
		}
		from = start + 1
	}
	return nil, 0, 0, false
}

// matchBrace returns the offset just past the brace that closes the one at
// start. Braces inside double-quoted strings are ignored.
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// trimmedBounds narrows [start, end) to exclude surrounding whitespace.
func trimmedBounds(text string, start, end int) (int, int) {
	seg := text[start:end]
	lead := len(seg) - len(strings.TrimLeftFunc(seg, unicode.IsSpace))
	trail := len(seg) - len(strings.TrimRightFunc(seg, unicode.IsSpace))
	return start + lead, end - trail
}
