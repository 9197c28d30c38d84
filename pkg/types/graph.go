// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data shared by every stage of claimgraph: the
// canonical claim graph, forcing points, traversal state, and configuration.
package types

// ClaimType categorizes the epistemic nature of a claim.
type ClaimType string

const (
	ClaimFactual      ClaimType = "factual"
	ClaimPrescriptive ClaimType = "prescriptive"
	ClaimConditional  ClaimType = "conditional"
	ClaimContested    ClaimType = "contested"
	ClaimSpeculative  ClaimType = "speculative"
)

// ValidClaimTypes is the set of accepted ClaimType values.
var ValidClaimTypes = map[ClaimType]bool{
	ClaimFactual:      true,
	ClaimPrescriptive: true,
	ClaimConditional:  true,
	ClaimContested:    true,
	ClaimSpeculative:  true,
}

// ClaimRole describes how a claim participates in the overall answer.
type ClaimRole string

const (
	RoleAnchor     ClaimRole = "anchor"
	RoleBranch     ClaimRole = "branch"
	RoleChallenger ClaimRole = "challenger"
	RoleSupplement ClaimRole = "supplement"
)

// ValidClaimRoles is the set of accepted ClaimRole values.
var ValidClaimRoles = map[ClaimRole]bool{
	RoleAnchor:     true,
	RoleBranch:     true,
	RoleChallenger: true,
	RoleSupplement: true,
}

// Claim is one competing assertion in a mapping round. Claims are created
// once by the normalizer and never modified afterwards.
type Claim struct {
	// ID is unique within the graph (conventionally "c_<n>").
	ID string `json:"id" yaml:"id"`

	// Label is the short human-readable handle shown in decisions.
	Label string `json:"label" yaml:"label"`

	// Text is the full statement of the claim.
	Text string `json:"text" yaml:"text"`

	// Supporters lists the indices of the models that produced the claim.
	Supporters []int `json:"supporters" yaml:"supporters"`

	Type ClaimType `json:"type" yaml:"type"`
	Role ClaimRole `json:"role" yaml:"role"`

	// Challenges is the id of the claim this one opposes, or nil.
	Challenges *string `json:"challenges" yaml:"challenges"`
}

// EdgeType is the canonical relationship type carried by the graph.
type EdgeType string

// EdgeConflict is the only canonical edge type. Legacy "conflicts" and
// "tradeoff" inputs are folded into it by the normalizer.
const EdgeConflict EdgeType = "conflict"

// Edge is a relationship between two claims.
type Edge struct {
	From string   `json:"from" yaml:"from"`
	To   string   `json:"to" yaml:"to"`
	Type EdgeType `json:"type" yaml:"type"`

	// Question is the decision that separates the two claims. It is encoded
	// as null when unknown, never omitted.
	Question *string `json:"question" yaml:"question"`
}

// ConditionalPruner is a yes/no gate. Answering "no" eliminates every
// claim in AffectedClaims.
type ConditionalPruner struct {
	ID             string   `json:"id" yaml:"id"`
	Question       string   `json:"question" yaml:"question"`
	AffectedClaims []string `json:"affectedClaims" yaml:"affected_claims"`
}

// Graph is the canonical, validated output of one mapping round.
type Graph struct {
	Claims       []Claim             `json:"claims" yaml:"claims"`
	Determinants DeterminantList     `json:"determinants,omitempty" yaml:"determinants,omitempty"`
	Edges        []Edge              `json:"edges" yaml:"edges"`
	Conditionals []ConditionalPruner `json:"conditionals" yaml:"conditionals"`
}

// Claim returns the claim with the given id.
func (g *Graph) Claim(id string) (Claim, bool) {
	for _, c := range g.Claims {
		if c.ID == id {
			return c, true
		}
	}
	return Claim{}, false
}

// ReferencedClaimIDs returns every claim id mentioned anywhere in the graph
// (claims, edge endpoints, gate targets), in first-seen order.
func (g *Graph) ReferencedClaimIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, c := range g.Claims {
		add(c.ID)
	}
	for _, e := range g.Edges {
		add(e.From)
		add(e.To)
	}
	for _, p := range g.Conditionals {
		for _, id := range p.AffectedClaims {
			add(id)
		}
	}
	return ids
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
