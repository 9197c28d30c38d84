// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// SectionSource records how ParseUnifiedOutput delimited the map and the
// narrative.
type SectionSource string

const (
	SourceTags     SectionSource = "tags"
	SourceHeadings SectionSource = "headings"
	SourceInline   SectionSource = "inline"
)

// UnifiedOutput is a model response split into its map payload and its
// prose narrative.
type UnifiedOutput struct {
	// Map is the extraction result for the map section. Its offsets are
	// relative to MapText.
	Map Result

	MapText   string
	Narrative string
	Source    SectionSource
}

var (
	escapedAngle = regexp.MustCompile(`\\+([<>])`)

	mapTag          = regexp.MustCompile(`(?is)<map>(.*?)</map>`)
	narrativeTag    = regexp.MustCompile(`(?is)<narrative>(.*?)</narrative>`)
	rawNarrativeTag = regexp.MustCompile(`(?is)<raw_narrative>(.*?)</raw_narrative>`)

	mapHeading       = regexp.MustCompile(`(?im)^[ \t]*#{1,6}[ \t]*THE MAP\b[^\n]*$`)
	narrativeHeading = regexp.MustCompile(`(?im)^[ \t]*#{1,6}[ \t]*THE NARRATIVE\b[^\n]*$`)
)

// ParseUnifiedOutput splits text into map and narrative sections.
//
// Backslashes directly before < or > are removed first. Explicit tags win;
// when a tag occurs more than once the last occurrence is used. Without
// tags, "THE MAP" / "THE NARRATIVE" markdown headings delimit the sections.
// Otherwise the payload is extracted inline and the narrative is whatever
// surrounds it.
func ParseUnifiedOutput(text string) UnifiedOutput {
	cleaned := escapedAngle.ReplaceAllString(text, "$1")

	if out, ok := fromTags(cleaned); ok {
		return out
	}
	if out, ok := fromHeadings(cleaned); ok {
		return out
	}

	out := UnifiedOutput{Source: SourceInline}
	r := Extract(cleaned)
	if !r.Found() {
		out.Map = r
		out.Narrative = strings.TrimSpace(cleaned)
		return out
	}
	out.MapText = cleaned[r.Start:r.End]
	out.Map = r
	out.Map.Start, out.Map.End = 0, len(out.MapText)
	out.Narrative = outside(cleaned, r.Start, r.End)
	return out
}

func fromTags(text string) (UnifiedOutput, bool) {
	mapLoc := lastSubmatch(mapTag, text)
	narrLoc := lastSubmatch(narrativeTag, text)
	if narrLoc == nil {
		narrLoc = lastSubmatch(rawNarrativeTag, text)
	}
	if mapLoc == nil && narrLoc == nil {
		return UnifiedOutput{}, false
	}

	out := UnifiedOutput{Source: SourceTags}
	switch {
	case mapLoc != nil && narrLoc != nil:
		out.MapText = strings.TrimSpace(text[mapLoc[2]:mapLoc[3]])
		out.Narrative = strings.TrimSpace(text[narrLoc[2]:narrLoc[3]])
	case mapLoc != nil:
		out.MapText = strings.TrimSpace(text[mapLoc[2]:mapLoc[3]])
		out.Narrative = outside(text, mapLoc[0], mapLoc[1])
	default:
		out.MapText = outside(text, narrLoc[0], narrLoc[1])
		out.Narrative = strings.TrimSpace(text[narrLoc[2]:narrLoc[3]])
	}
	out.Map = Extract(out.MapText)
	return out, true
}

func fromHeadings(text string) (UnifiedOutput, bool) {
	mapLoc := lastIndex(mapHeading, text)
	narrLoc := lastIndex(narrativeHeading, text)
	if mapLoc == nil && narrLoc == nil {
		return UnifiedOutput{}, false
	}

	out := UnifiedOutput{Source: SourceHeadings}
	switch {
	case mapLoc != nil && narrLoc != nil:
		out.MapText = sectionAfter(text, mapLoc, narrLoc)
		out.Narrative = sectionAfter(text, narrLoc, mapLoc)
	case mapLoc != nil:
		out.MapText = strings.TrimSpace(text[mapLoc[1]:])
		out.Narrative = strings.TrimSpace(text[:mapLoc[0]])
	default:
		out.MapText = strings.TrimSpace(text[:narrLoc[0]])
		out.Narrative = strings.TrimSpace(text[narrLoc[1]:])
	}
	out.Map = Extract(out.MapText)
	return out, true
}

// sectionAfter returns the text following heading up to the other heading
// when that one comes later, else to the end of text.
func sectionAfter(text string, heading, other []int) string {
	end := len(text)
	if other[0] > heading[0] {
		end = other[0]
	}
	return strings.TrimSpace(text[heading[1]:end])
}

// outside returns the text before start and after end, joined by a blank
// line when both are non-empty.
func outside(text string, start, end int) string {
	before := strings.TrimSpace(text[:start])
	after := strings.TrimSpace(text[end:])
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + "\n\n" + after
	}
}

func lastSubmatch(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringSubmatchIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func lastIndex(re *regexp.Regexp, s string) []int {
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}
