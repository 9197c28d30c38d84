// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ForcingPointKind discriminates the two ForcingPoint variants.
type ForcingPointKind string

const (
	ForcingConditional ForcingPointKind = "conditional"
	ForcingConflict    ForcingPointKind = "conflict"
)

// Tiers order forcing points: gates are always asked before conflicts.
const (
	TierConditional = 0
	TierConflict    = 2
)

// ConflictStatus is the lifecycle of a conflict forcing point.
type ConflictStatus string

const (
	StatusPending      ConflictStatus = "pending"
	StatusAutoResolved ConflictStatus = "auto_resolved"
	StatusResolved     ConflictStatus = "resolved"
)

// ForcingPoint is a decision the user must make to progress the traversal.
// It is a closed sum type: ConditionalPoint or ConflictPoint.
type ForcingPoint interface {
	PointID() string
	PointKind() ForcingPointKind
	PointTier() int
	isForcingPoint()
}

// ConditionalPoint asks a gate's yes/no question.
type ConditionalPoint struct {
	ID     string            `json:"id" yaml:"id"`
	Tier   int               `json:"tier" yaml:"tier"`
	Pruner ConditionalPruner `json:"pruner" yaml:"pruner"`
}

// ConflictOption is one side of a conflict.
type ConflictOption struct {
	ClaimID string `json:"claimId" yaml:"claim_id"`
	Label   string `json:"label" yaml:"label"`
}

// ConflictPoint asks the user to prefer one of two competing claims.
type ConflictPoint struct {
	ID       string            `json:"id" yaml:"id"`
	Tier     int               `json:"tier" yaml:"tier"`
	Question *string           `json:"question" yaml:"question"`
	Options  [2]ConflictOption `json:"options" yaml:"options"`
	Status   ConflictStatus    `json:"status" yaml:"status"`
}

func (p ConditionalPoint) PointID() string             { return p.ID }
func (p ConditionalPoint) PointKind() ForcingPointKind { return ForcingConditional }
func (p ConditionalPoint) PointTier() int              { return p.Tier }
func (ConditionalPoint) isForcingPoint()               {}

func (p ConflictPoint) PointID() string             { return p.ID }
func (p ConflictPoint) PointKind() ForcingPointKind { return ForcingConflict }
func (p ConflictPoint) PointTier() int              { return p.Tier }
func (ConflictPoint) isForcingPoint()               {}

// Option returns the option for claimID.
func (p ConflictPoint) Option(claimID string) (ConflictOption, bool) {
	for _, o := range p.Options {
		if o.ClaimID == claimID {
			return o, true
		}
	}
	return ConflictOption{}, false
}

// Other returns the option that is not claimID.
func (p ConflictPoint) Other(claimID string) ConflictOption {
	if p.Options[0].ClaimID == claimID {
		return p.Options[1]
	}
	return p.Options[0]
}
