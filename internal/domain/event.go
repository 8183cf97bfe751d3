package domain

import (
	"errors"

	"github.com/google/uuid"
)

// EventKind identifies the game action that produced a prestige event.
// This is a closed set: aggregation filters match on these constants,
// never on free-form strings.
type EventKind string

const (
	EventKindSale              EventKind = "SALE"
	EventKindContract          EventKind = "CONTRACT"
	EventKindVineyardAge       EventKind = "VINEYARD_AGE"
	EventKindVineyardLand      EventKind = "VINEYARD_LAND"
	EventKindCompanyValue      EventKind = "COMPANY_VALUE"
	EventKindPenalty           EventKind = "PENALTY"
	EventKindRelationshipBoost EventKind = "RELATIONSHIP_BOOST"
)

// validEventKinds is the closed set accepted by Validate
var validEventKinds = map[EventKind]bool{
	EventKindSale:              true,
	EventKindContract:          true,
	EventKindVineyardAge:       true,
	EventKindVineyardLand:      true,
	EventKindCompanyValue:      true,
	EventKindPenalty:           true,
	EventKindRelationshipBoost: true,
}

// PrestigeKinds selects the event kinds that count toward a company's prestige total
var PrestigeKinds = []EventKind{
	EventKindSale,
	EventKindContract,
	EventKindVineyardAge,
	EventKindVineyardLand,
	EventKindCompanyValue,
	EventKindPenalty,
}

// RelationshipKinds selects the event kinds that count toward a customer
// relationship score
var RelationshipKinds = []EventKind{
	EventKindRelationshipBoost,
	EventKindSale,
}

// PrestigeEvent is a single timestamped, decaying contribution to an owner's
// prestige or relationship score.
//
// DecayRate semantics:
//   - 0 means the event never decays (a permanent contribution such as
//     vineyard age or company value, re-upserted as the underlying state changes)
//   - a value in (0,1) is the multiplicative weekly retention: the current
//     value after n elapsed weeks is Amount * DecayRate^n
//
// An event is never mutated on read; its current value is recomputed from
// CreatedWeek every time it is aggregated.
type PrestigeEvent struct {
	ID          uuid.UUID
	OwnerKey    string // company or customer key the contribution belongs to
	Kind        EventKind
	Amount      float64
	CreatedWeek int    // absolute game week (GameDate.AbsoluteWeek) at creation
	DecayRate   float64
	SourceID    string // identity of the producing entity for upserted kinds (e.g., vineyard id); empty for one-shot events
	Description string
}

// Validate ensures the event adheres to domain rules
// Returns an error if validation fails
func (e *PrestigeEvent) Validate() error {
	if e.OwnerKey == "" {
		return errors.New("event owner key cannot be empty")
	}
	if !validEventKinds[e.Kind] {
		return errors.New("unknown event kind: " + string(e.Kind))
	}
	if e.CreatedWeek < 0 {
		return errors.New("event created week cannot be negative")
	}
	return nil
}

// EffectiveDecayRate returns the decay rate with defensive inputs collapsed:
// anything outside [0,1) is treated as 0 (no decay) rather than extrapolated.
func (e *PrestigeEvent) EffectiveDecayRate() float64 {
	if e.DecayRate <= 0 || e.DecayRate >= 1 {
		return 0
	}
	return e.DecayRate
}

// IsPermanent reports whether the event never decays
func (e *PrestigeEvent) IsPermanent() bool {
	return e.EffectiveDecayRate() == 0
}

// KindFilter builds an aggregation predicate matching any of the given kinds
func KindFilter(kinds ...EventKind) func(*PrestigeEvent) bool {
	set := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(e *PrestigeEvent) bool {
		return set[e.Kind]
	}
}
