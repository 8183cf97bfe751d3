package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

const (
	// PrestigeFloor is the minimum prestige total. Prestige feeds downstream
	// multipliers, so it never reaches zero or below.
	PrestigeFloor = 1.0

	// PrestigeEpsilon is the decayed value below which a prestige event
	// becomes eligible for garbage collection
	PrestigeEpsilon = 0.01

	// RelationshipEpsilon is the sweep threshold for relationship ledgers,
	// which carry coarser contributions than prestige
	RelationshipEpsilon = 0.1
)

// defaultDecayRates are the weekly retention fractions applied to events of
// each kind when recorded through RecordEvent. Kinds absent from the map are
// permanent (decay 0) and maintained via UpsertBaseEvent instead.
var defaultDecayRates = map[domain.EventKind]float64{
	domain.EventKindSale:              0.95,
	domain.EventKindContract:          0.98,
	domain.EventKindPenalty:           0.90,
	domain.EventKindRelationshipBoost: 0.90,
}

// Contribution is one event's share of an aggregate, for display breakdowns
type Contribution struct {
	EventID      uuid.UUID
	Kind         domain.EventKind
	Description  string
	BaseAmount   float64
	CurrentValue float64
	AgeWeeks     int
}

// PrestigeResult is the aggregated prestige total plus its per-event breakdown
type PrestigeResult struct {
	OwnerKey  string
	Total     float64
	Breakdown []Contribution
}

// PrestigeService owns the decay ledger for prestige and relationship events.
// Decay is computed lazily at read time from the game calendar; no background
// timers. Writes for the same owner key must not interleave (single writer
// per owner); reads for different owners are embarrassingly parallel.
type PrestigeService struct {
	EventRepo domain.EventRepository
	ClockRepo domain.ClockRepository
}

// NewPrestigeService creates a new PrestigeService instance
func NewPrestigeService(eventRepo domain.EventRepository, clockRepo domain.ClockRepository) *PrestigeService {
	return &PrestigeService{
		EventRepo: eventRepo,
		ClockRepo: clockRepo,
	}
}

// CurrentValue computes an event's decayed value at the given absolute game
// week. Permanent events (decay 0, or a defensive rate outside [0,1)) keep
// their base amount forever; decaying events retain DecayRate per elapsed
// week. An event created in the current week has zero elapsed weeks and is
// worth exactly its base amount.
func CurrentValue(event *domain.PrestigeEvent, nowWeek int) float64 {
	rate := event.EffectiveDecayRate()
	if rate == 0 {
		return event.Amount
	}
	elapsed := nowWeek - event.CreatedWeek
	if elapsed <= 0 {
		return event.Amount
	}
	return event.Amount * math.Pow(rate, float64(elapsed))
}

// Aggregate sums the current values of the events matching the filter,
// skipping non-positive contributions except that negative amounts (penalties)
// are included, and floors the result. Relationship ledgers pass floor 0.
func Aggregate(events []*domain.PrestigeEvent, filter func(*domain.PrestigeEvent) bool, nowWeek int, floor float64) float64 {
	total := 0.0
	for _, event := range events {
		if filter != nil && !filter(event) {
			continue
		}
		value := CurrentValue(event, nowWeek)
		// Positive contributions below the value of noise are excluded;
		// penalties (negative amounts) always count.
		if value > 0 || event.Amount < 0 {
			total += value
		}
	}
	if total < floor {
		return floor
	}
	return total
}

// CalculateCurrentPrestige aggregates the owner's prestige-kind events at the
// current game week. The total is floored at PrestigeFloor; the breakdown
// lists every contributing event with its decayed value.
func (s *PrestigeService) CalculateCurrentPrestige(ctx context.Context, ownerKey string) (*PrestigeResult, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	nowWeek := now.AbsoluteWeek()

	events, err := s.EventRepo.ListByOwner(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Unknown owners degrade to the floor, not a fault
			return &PrestigeResult{OwnerKey: ownerKey, Total: PrestigeFloor}, nil
		}
		return nil, fmt.Errorf("failed to list events for %s: %w", ownerKey, err)
	}

	filter := domain.KindFilter(domain.PrestigeKinds...)
	result := &PrestigeResult{
		OwnerKey: ownerKey,
		Total:    Aggregate(events, filter, nowWeek, PrestigeFloor),
	}
	for _, event := range events {
		if !filter(event) {
			continue
		}
		result.Breakdown = append(result.Breakdown, Contribution{
			EventID:      event.ID,
			Kind:         event.Kind,
			Description:  event.Description,
			BaseAmount:   event.Amount,
			CurrentValue: CurrentValue(event, nowWeek),
			AgeWeeks:     nowWeek - event.CreatedWeek,
		})
	}
	return result, nil
}

// CalculateRelationshipBoost aggregates the owner's relationship-kind events.
// Relationship ledgers have no floor: zero is a valid score.
func (s *PrestigeService) CalculateRelationshipBoost(ctx context.Context, ownerKey string) (float64, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read game clock: %w", err)
	}
	events, err := s.EventRepo.ListByOwner(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list events for %s: %w", ownerKey, err)
	}
	filter := domain.KindFilter(domain.RelationshipKinds...)
	return Aggregate(events, filter, now.AbsoluteWeek(), 0), nil
}

// RecordEvent appends a one-shot decaying event for the owner using the
// kind's default decay rate, timestamped at the current game week
func (s *PrestigeService) RecordEvent(ctx context.Context, ownerKey string, kind domain.EventKind, amount float64, description string) (*domain.PrestigeEvent, error) {
	rate, ok := defaultDecayRates[kind]
	if !ok {
		return nil, fmt.Errorf("kind %s is permanent: use UpsertBaseEvent", kind)
	}
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}

	event := &domain.PrestigeEvent{
		ID:          uuid.New(),
		OwnerKey:    ownerKey,
		Kind:        kind,
		Amount:      amount,
		CreatedWeek: now.AbsoluteWeek(),
		DecayRate:   rate,
		Description: description,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.EventRepo.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// UpsertBaseEvent replaces the permanent contribution identified by
// (ownerKey, kind, sourceID) with a freshly computed amount, or inserts it
// when absent. Recomputing a "current state" value (vineyard age, company
// value) every tick is therefore idempotent and never grows the ledger.
func (s *PrestigeService) UpsertBaseEvent(ctx context.Context, ownerKey string, kind domain.EventKind, sourceID string, amount float64) (*domain.PrestigeEvent, error) {
	if sourceID == "" {
		return nil, errors.New("source id is required for upserted events")
	}
	if _, decaying := defaultDecayRates[kind]; decaying {
		return nil, fmt.Errorf("kind %s decays: use RecordEvent", kind)
	}
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}

	existing, err := s.EventRepo.FindBySource(ctx, ownerKey, kind, sourceID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up event source %s/%s: %w", kind, sourceID, err)
	}

	if existing != nil {
		existing.Amount = amount
		existing.CreatedWeek = now.AbsoluteWeek()
		if err := s.EventRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		return existing, nil
	}

	event := &domain.PrestigeEvent{
		ID:          uuid.New(),
		OwnerKey:    ownerKey,
		Kind:        kind,
		Amount:      amount,
		CreatedWeek: now.AbsoluteWeek(),
		DecayRate:   0,
		SourceID:    sourceID,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.EventRepo.Insert(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// Sweep returns the ids of the owner's events whose decayed value has fallen
// below epsilon. It is a pure garbage-collection aid: the caller owns the
// store and decides when to apply the deletions, and skipping a sweep only
// leaves negligible contributions in place.
func (s *PrestigeService) Sweep(ctx context.Context, ownerKey string, epsilon float64) ([]uuid.UUID, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	events, err := s.EventRepo.ListByOwner(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list events for %s: %w", ownerKey, err)
	}

	nowWeek := now.AbsoluteWeek()
	var eligible []uuid.UUID
	for _, event := range events {
		if event.IsPermanent() {
			continue
		}
		if math.Abs(CurrentValue(event, nowWeek)) < epsilon {
			eligible = append(eligible, event.ID)
		}
	}
	return eligible, nil
}
