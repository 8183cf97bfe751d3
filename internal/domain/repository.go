package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories and providers when the requested
// entity does not exist. Scoring services treat it as "use neutral defaults",
// never as a fault that aborts the simulation tick.
var ErrNotFound = errors.New("entity not found")

// EventRepository defines the interface for prestige event persistence operations
type EventRepository interface {
	// Insert stores a new event
	Insert(ctx context.Context, event *PrestigeEvent) error

	// ListByOwner retrieves all events for an owner key
	ListByOwner(ctx context.Context, ownerKey string) ([]*PrestigeEvent, error)

	// FindBySource retrieves the event for a unique (ownerKey, kind, sourceID)
	// triple, used by upserted permanent contributions.
	// Returns ErrNotFound when no such event exists.
	FindBySource(ctx context.Context, ownerKey string, kind EventKind, sourceID string) (*PrestigeEvent, error)

	// Update replaces the stored amount and timestamp of an existing event
	Update(ctx context.Context, event *PrestigeEvent) error

	// DeleteByIDs removes events whole; an event is never partially deleted
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// SnapshotHistoryRepository defines the interface for the weekly share-metrics
// timeline. It exists solely so "value N weeks ago" lookups are O(1).
type SnapshotHistoryRepository interface {
	// Save persists the snapshot row for (CompanyID, Week), replacing any
	// existing row for the same week
	Save(ctx context.Context, snapshot *HistoricalSnapshot) error

	// GetAtWeek retrieves the snapshot for a company at an absolute game week.
	// Returns ErrNotFound when no row exists for that week.
	GetAtWeek(ctx context.Context, companyID string, week int) (*HistoricalSnapshot, error)
}

// SharePriceRepository defines the interface for share price state persistence
type SharePriceRepository interface {
	// Get retrieves the price state for a company.
	// Returns ErrNotFound for companies with no state yet (uninitialized).
	Get(ctx context.Context, companyID string) (*SharePriceState, error)

	// Save persists the price state
	Save(ctx context.Context, state *SharePriceState) error
}

// CompanyRepository defines the interface for the company registry
type CompanyRepository interface {
	// GetByID retrieves a company by its ID.
	// Returns ErrNotFound when the company does not exist.
	GetByID(ctx context.Context, id string) (*Company, error)

	// List retrieves all companies
	List(ctx context.Context) ([]*Company, error)
}

// ClockRepository supplies and advances the shared game calendar
type ClockRepository interface {
	// Now returns the current game date
	Now(ctx context.Context) (GameDate, error)

	// Advance moves the calendar forward one week and returns the new date
	Advance(ctx context.Context) (GameDate, error)
}

// PeriodTotals are the financial totals for a window of game weeks
type PeriodTotals struct {
	Revenue   decimal.Decimal
	Profit    decimal.Decimal
	Dividends decimal.Decimal
}

// FinanceProvider supplies financial data from the wider game.
// It is an external collaborator; the engines only read from it.
type FinanceProvider interface {
	// Snapshot returns the company's current finances. Implementations may
	// return a sparse snapshot; callers pass it through ResolveSnapshot
	// before scoring.
	Snapshot(ctx context.Context, companyID string) (FinancialSnapshot, error)

	// PeriodTotals returns revenue, profit and dividends over the half-open
	// week range [fromWeek, toWeek)
	PeriodTotals(ctx context.Context, companyID string, fromWeek, toWeek int) (PeriodTotals, error)
}

// LoanProvider supplies active loans and the repayment record
type LoanProvider interface {
	// ActiveLoans returns the company's outstanding loans
	ActiveLoans(ctx context.Context, companyID string) ([]Loan, error)

	// PaymentHistory returns the company's all-time repayment record
	PaymentHistory(ctx context.Context, companyID string) (PaymentHistory, error)
}

// MarketProvider supplies the macro state and per-company expectation baselines
type MarketProvider interface {
	// Phase returns the current economy phase
	Phase(ctx context.Context) (EconomyPhase, error)

	// Baselines returns the stored expectation baselines for a company.
	// Returns ErrNotFound for companies without stored baselines.
	Baselines(ctx context.Context, companyID string) (ExpectedBaselines, error)
}
