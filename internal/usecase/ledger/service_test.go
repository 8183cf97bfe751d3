package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// MockEventRepository is a mock implementation of EventRepository for testing
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Insert(ctx context.Context, event *domain.PrestigeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) ListByOwner(ctx context.Context, ownerKey string) ([]*domain.PrestigeEvent, error) {
	args := m.Called(ctx, ownerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PrestigeEvent), args.Error(1)
}

func (m *MockEventRepository) FindBySource(ctx context.Context, ownerKey string, kind domain.EventKind, sourceID string) (*domain.PrestigeEvent, error) {
	args := m.Called(ctx, ownerKey, kind, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PrestigeEvent), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.PrestigeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockClockRepository is a mock implementation of ClockRepository for testing
type MockClockRepository struct {
	mock.Mock
}

func (m *MockClockRepository) Now(ctx context.Context) (domain.GameDate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.GameDate), args.Error(1)
}

func (m *MockClockRepository) Advance(ctx context.Context) (domain.GameDate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.GameDate), args.Error(1)
}

// dateAtWeek builds a GameDate whose AbsoluteWeek equals week
func dateAtWeek(week int) domain.GameDate {
	seasons := []domain.Season{domain.SeasonSpring, domain.SeasonSummer, domain.SeasonFall, domain.SeasonWinter}
	return domain.GameDate{
		Week:   week%domain.WeeksPerSeason + 1,
		Season: seasons[(week/domain.WeeksPerSeason)%domain.SeasonsPerYear],
		Year:   week/domain.WeeksPerYear + 1,
	}
}

func TestCurrentValue_DecayScenario(t *testing.T) {
	// An event of 100 with weekly retention 0.95 read 10 weeks later is
	// worth 100 * 0.95^10 ~= 59.87
	event := &domain.PrestigeEvent{
		Amount:      100,
		CreatedWeek: 0,
		DecayRate:   0.95,
	}

	assert.InDelta(t, 59.8737, CurrentValue(event, 10), 1e-3)
}

func TestCurrentValue_ZeroElapsedWeeks(t *testing.T) {
	// An event created in the current week is worth its base amount
	// regardless of decay rate
	event := &domain.PrestigeEvent{
		Amount:      42,
		CreatedWeek: 7,
		DecayRate:   0.5,
	}

	assert.Equal(t, 42.0, CurrentValue(event, 7))
}

func TestCurrentValue_StrictlyDecreasing(t *testing.T) {
	event := &domain.PrestigeEvent{Amount: 100, CreatedWeek: 0, DecayRate: 0.9}

	prev := CurrentValue(event, 0)
	assert.Equal(t, 100.0, prev)
	for week := 1; week <= 52; week++ {
		cur := CurrentValue(event, week)
		assert.Less(t, cur, prev, "value did not decrease at week %d", week)
		prev = cur
	}
}

func TestCurrentValue_PermanentEventInvariance(t *testing.T) {
	event := &domain.PrestigeEvent{Amount: 15, CreatedWeek: 0, DecayRate: 0}

	for _, week := range []int{0, 1, 48, 480, 100_000} {
		assert.Equal(t, 15.0, CurrentValue(event, week), "week %d", week)
	}
}

func TestCurrentValue_DefensiveDecayRateTreatedAsPermanent(t *testing.T) {
	// Rates outside [0,1) must not be extrapolated
	for _, rate := range []float64{-0.5, 1.0, 2.5} {
		event := &domain.PrestigeEvent{Amount: 10, CreatedWeek: 0, DecayRate: rate}
		assert.Equal(t, 10.0, CurrentValue(event, 20), "rate %v", rate)
	}
}

func TestAggregate_FloorAndFiltering(t *testing.T) {
	events := []*domain.PrestigeEvent{
		// Decayed to ~0.0059 after 100 weeks, far below the floor
		{Kind: domain.EventKindSale, Amount: 1, CreatedWeek: 0, DecayRate: 0.95},
		// Relationship events must not count toward prestige
		{Kind: domain.EventKindRelationshipBoost, Amount: 500, CreatedWeek: 100, DecayRate: 0.9},
	}

	filter := domain.KindFilter(domain.PrestigeKinds...)
	total := Aggregate(events, filter, 100, PrestigeFloor)

	// The sale alone is worth ~0.0059, below the floor of 1
	assert.Equal(t, PrestigeFloor, total)
}

func TestAggregate_PenaltiesReduceTheTotal(t *testing.T) {
	events := []*domain.PrestigeEvent{
		{Kind: domain.EventKindCompanyValue, Amount: 10, CreatedWeek: 0, DecayRate: 0},
		{Kind: domain.EventKindPenalty, Amount: -4, CreatedWeek: 50, DecayRate: 0.90},
	}

	// At week 50 the penalty has zero elapsed weeks: 10 - 4 = 6
	total := Aggregate(events, domain.KindFilter(domain.PrestigeKinds...), 50, PrestigeFloor)
	assert.InDelta(t, 6.0, total, 1e-9)
}

func TestAggregate_NoFloorForRelationships(t *testing.T) {
	total := Aggregate(nil, domain.KindFilter(domain.RelationshipKinds...), 10, 0)
	assert.Equal(t, 0.0, total)
}

func TestCalculateCurrentPrestige_TotalAndBreakdown(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(10), nil)

	saleID := uuid.New()
	ageID := uuid.New()
	mockEventRepo.On("ListByOwner", ctx, "company-1").Return([]*domain.PrestigeEvent{
		{ID: saleID, OwnerKey: "company-1", Kind: domain.EventKindSale, Amount: 100, CreatedWeek: 0, DecayRate: 0.95},
		{ID: ageID, OwnerKey: "company-1", Kind: domain.EventKindVineyardAge, Amount: 8, CreatedWeek: 0, DecayRate: 0},
	}, nil)

	result, err := service.CalculateCurrentPrestige(ctx, "company-1")

	require.NoError(t, err)
	// 100 * 0.95^10 + 8 ~= 67.87
	assert.InDelta(t, 67.8737, result.Total, 1e-3)
	require.Len(t, result.Breakdown, 2)
	assert.Equal(t, saleID, result.Breakdown[0].EventID)
	assert.InDelta(t, 59.8737, result.Breakdown[0].CurrentValue, 1e-3)
	assert.Equal(t, 10, result.Breakdown[0].AgeWeeks)
	assert.Equal(t, 8.0, result.Breakdown[1].CurrentValue)
}

func TestCalculateCurrentPrestige_FloorWithNoEvents(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(5), nil)
	mockEventRepo.On("ListByOwner", ctx, "empty-co").Return([]*domain.PrestigeEvent{}, nil)

	result, err := service.CalculateCurrentPrestige(ctx, "empty-co")

	require.NoError(t, err)
	assert.Equal(t, PrestigeFloor, result.Total)
	assert.Empty(t, result.Breakdown)
}

func TestCalculateCurrentPrestige_UnknownOwnerDegradesToFloor(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(5), nil)
	mockEventRepo.On("ListByOwner", ctx, "ghost-co").Return(nil, domain.ErrNotFound)

	result, err := service.CalculateCurrentPrestige(ctx, "ghost-co")

	require.NoError(t, err)
	assert.Equal(t, PrestigeFloor, result.Total)
}

func TestUpsertBaseEvent_InsertsWhenAbsent(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(20), nil)
	mockEventRepo.On("FindBySource", ctx, "company-1", domain.EventKindVineyardAge, "vineyard-7").
		Return(nil, domain.ErrNotFound)
	mockEventRepo.On("Insert", ctx, mock.AnythingOfType("*domain.PrestigeEvent")).Return(nil)

	event, err := service.UpsertBaseEvent(ctx, "company-1", domain.EventKindVineyardAge, "vineyard-7", 5.5)

	require.NoError(t, err)
	assert.Equal(t, 5.5, event.Amount)
	assert.Equal(t, 20, event.CreatedWeek)
	assert.Equal(t, 0.0, event.DecayRate)
	assert.Equal(t, "vineyard-7", event.SourceID)
	mockEventRepo.AssertCalled(t, "Insert", ctx, mock.AnythingOfType("*domain.PrestigeEvent"))
}

func TestUpsertBaseEvent_ReplacesExistingAmount(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	existing := &domain.PrestigeEvent{
		ID:          uuid.New(),
		OwnerKey:    "company-1",
		Kind:        domain.EventKindCompanyValue,
		Amount:      12,
		CreatedWeek: 3,
		SourceID:    "company-1",
	}

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(30), nil)
	mockEventRepo.On("FindBySource", ctx, "company-1", domain.EventKindCompanyValue, "company-1").
		Return(existing, nil)
	mockEventRepo.On("Update", ctx, existing).Return(nil)

	event, err := service.UpsertBaseEvent(ctx, "company-1", domain.EventKindCompanyValue, "company-1", 20)

	require.NoError(t, err)
	// Same event id: replaced in place, never duplicated
	assert.Equal(t, existing.ID, event.ID)
	assert.Equal(t, 20.0, event.Amount)
	assert.Equal(t, 30, event.CreatedWeek)
	mockEventRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUpsertBaseEvent_RejectsDecayingKinds(t *testing.T) {
	service := NewPrestigeService(new(MockEventRepository), new(MockClockRepository))

	_, err := service.UpsertBaseEvent(context.Background(), "company-1", domain.EventKindSale, "sale-1", 10)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "use RecordEvent")
}

func TestRecordEvent_UsesKindDefaultDecay(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	mockClockRepo.On("Now", ctx).Return(dateAtWeek(4), nil)
	mockEventRepo.On("Insert", ctx, mock.AnythingOfType("*domain.PrestigeEvent")).Return(nil)

	event, err := service.RecordEvent(ctx, "company-1", domain.EventKindSale, 25, "case of reserve pinot")

	require.NoError(t, err)
	assert.Equal(t, 0.95, event.DecayRate)
	assert.Equal(t, 4, event.CreatedWeek)
}

func TestSweep_ReturnsOnlyNegligibleDecayingEvents(t *testing.T) {
	ctx := context.Background()
	mockEventRepo := new(MockEventRepository)
	mockClockRepo := new(MockClockRepository)
	service := NewPrestigeService(mockEventRepo, mockClockRepo)

	staleID := uuid.New()
	mockClockRepo.On("Now", ctx).Return(dateAtWeek(200), nil)
	mockEventRepo.On("ListByOwner", ctx, "company-1").Return([]*domain.PrestigeEvent{
		// 100 * 0.95^200 ~= 0.0035 < epsilon: eligible
		{ID: staleID, Kind: domain.EventKindSale, Amount: 100, CreatedWeek: 0, DecayRate: 0.95},
		// Fresh event: keep
		{ID: uuid.New(), Kind: domain.EventKindSale, Amount: 100, CreatedWeek: 199, DecayRate: 0.95},
		// Permanent events are never swept no matter how small
		{ID: uuid.New(), Kind: domain.EventKindVineyardAge, Amount: 0.001, CreatedWeek: 0, DecayRate: 0},
	}, nil)

	eligible, err := service.Sweep(ctx, "company-1", PrestigeEpsilon)

	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, staleID, eligible[0])
	// Sweep itself deletes nothing; that is the caller's call
	mockEventRepo.AssertNotCalled(t, "DeleteByIDs", mock.Anything, mock.Anything)
}
