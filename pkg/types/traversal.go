// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// ClaimStatus is the availability of a claim during traversal.
type ClaimStatus string

const (
	ClaimActive      ClaimStatus = "active"
	ClaimPruned      ClaimStatus = "pruned"
	ClaimUnavailable ClaimStatus = "unavailable"
)

// ResolutionKind discriminates the two Resolution variants.
type ResolutionKind string

const (
	ResolutionConditional ResolutionKind = "conditional"
	ResolutionConflict    ResolutionKind = "conflict"
)

// Resolution records how the user answered a forcing point. It is a closed
// sum type: ConditionalResolution or ConflictResolution.
type Resolution interface {
	ResolutionKind() ResolutionKind
	isResolution()
}

// ConditionalResolution answers a gate.
type ConditionalResolution struct {
	Satisfied bool    `json:"satisfied" yaml:"satisfied"`
	UserInput *string `json:"userInput,omitempty" yaml:"user_input,omitempty"`
}

// ConflictResolution records the preferred side of a conflict.
type ConflictResolution struct {
	SelectedClaimID string `json:"selectedClaimId" yaml:"selected_claim_id"`
	SelectedLabel   string `json:"selectedLabel" yaml:"selected_label"`
}

func (ConditionalResolution) ResolutionKind() ResolutionKind { return ResolutionConditional }
func (ConflictResolution) ResolutionKind() ResolutionKind    { return ResolutionConflict }

func (ConditionalResolution) isResolution() {}
func (ConflictResolution) isResolution()    {}

// MarshalJSON adds the "type" discriminator.
func (r ConditionalResolution) MarshalJSON() ([]byte, error) {
	type plain ConditionalResolution
	return json.Marshal(struct {
		Type ResolutionKind `json:"type"`
		plain
	}{ResolutionConditional, plain(r)})
}

// MarshalJSON adds the "type" discriminator.
func (r ConflictResolution) MarshalJSON() ([]byte, error) {
	type plain ConflictResolution
	return json.Marshal(struct {
		Type ResolutionKind `json:"type"`
		plain
	}{ResolutionConflict, plain(r)})
}

// TraversalState is the user's progress through one graph generation.
//
// Every claim referenced by the graph has an entry in ClaimStatuses.
// Resolutions only grows or overwrites by forcing point id. PathSteps is
// append-only and its order is the authoritative decision history.
type TraversalState struct {
	ClaimStatuses map[string]ClaimStatus
	Resolutions   map[string]Resolution
	PathSteps     []string
}

// Clone returns a deep copy of s.
func (s TraversalState) Clone() TraversalState {
	out := TraversalState{
		ClaimStatuses: make(map[string]ClaimStatus, len(s.ClaimStatuses)),
		Resolutions:   make(map[string]Resolution, len(s.Resolutions)),
		PathSteps:     make([]string, len(s.PathSteps)),
	}
	for k, v := range s.ClaimStatuses {
		out.ClaimStatuses[k] = v
	}
	for k, v := range s.Resolutions {
		out.Resolutions[k] = v
	}
	copy(out.PathSteps, s.PathSteps)
	return out
}

// SerializedState is the transport and storage form of a TraversalState.
// Maps are flattened to [key, value] pairs.
type SerializedState struct {
	ClaimStatuses []StatusEntry     `json:"claimStatuses"`
	Resolutions   []ResolutionEntry `json:"resolutions"`
	PathSteps     []string          `json:"pathSteps"`
}

// StatusEntry encodes as a two-element JSON array: [claimId, status].
type StatusEntry struct {
	ClaimID string
	Status  ClaimStatus
}

// MarshalJSON encodes the entry as a pair.
func (e StatusEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.ClaimID, string(e.Status)})
}

// ResolutionEntry encodes as a two-element JSON array: [forcingPointId, resolution].
type ResolutionEntry struct {
	ForcingPointID string
	Resolution     Resolution
}

// MarshalJSON encodes the entry as a pair.
func (e ResolutionEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ForcingPointID, e.Resolution})
}
