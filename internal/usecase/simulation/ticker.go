package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
)

// WeeklyTicker drives one full simulated week across every company: it
// advances the shared game clock, refreshes the permanent company-value
// prestige contribution, runs the weekly share price adjustment (which also
// persists the metrics history row), and garbage-collects fully decayed
// ledger events.
//
// A failure for one company never aborts the tick for the others.
type WeeklyTicker struct {
	CompanyRepo     domain.CompanyRepository
	FinanceProvider domain.FinanceProvider
	ClockRepo       domain.ClockRepository
	EventRepo       domain.EventRepository
	Ledger          *ledger.PrestigeService
	Shares          *shareprice.SharePriceService
	Log             *slog.Logger
}

// NewWeeklyTicker creates a new WeeklyTicker instance
func NewWeeklyTicker(
	companyRepo domain.CompanyRepository,
	financeProvider domain.FinanceProvider,
	clockRepo domain.ClockRepository,
	eventRepo domain.EventRepository,
	ledgerService *ledger.PrestigeService,
	shareService *shareprice.SharePriceService,
	logger *slog.Logger,
) *WeeklyTicker {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyTicker{
		CompanyRepo:     companyRepo,
		FinanceProvider: financeProvider,
		ClockRepo:       clockRepo,
		EventRepo:       eventRepo,
		Ledger:          ledgerService,
		Shares:          shareService,
		Log:             logger,
	}
}

// CompanyValuePrestige maps a company's net value onto its permanent prestige
// contribution. Log scale: value growth keeps paying prestige, but with
// sharply diminishing returns, so a giant cannot buy unbounded prestige.
func CompanyValuePrestige(value decimal.Decimal) float64 {
	v := value.InexactFloat64()
	if v <= 0 {
		return 0
	}
	return math.Log10(1 + v/1_000)
}

// RunWeeklyTick advances the clock one week and processes every company.
// Returns the new game date.
func (t *WeeklyTicker) RunWeeklyTick(ctx context.Context) (domain.GameDate, error) {
	date, err := t.ClockRepo.Advance(ctx)
	if err != nil {
		return domain.GameDate{}, fmt.Errorf("failed to advance game clock: %w", err)
	}

	companies, err := t.CompanyRepo.List(ctx)
	if err != nil {
		return date, fmt.Errorf("failed to list companies: %w", err)
	}

	for _, company := range companies {
		t.tickCompany(ctx, company, date)
	}

	t.Log.Info("weekly tick complete",
		"week", date.AbsoluteWeek(),
		"season", string(date.Season),
		"year", date.Year,
		"companies", len(companies),
	)
	return date, nil
}

func (t *WeeklyTicker) tickCompany(ctx context.Context, company *domain.Company, date domain.GameDate) {
	if err := t.refreshCompanyValuePrestige(ctx, company); err != nil {
		t.Log.Error("company value prestige refresh failed", "company_id", company.ID, "err", err)
	}

	result, err := t.Shares.AdjustWeekly(ctx, company.ID)
	if err != nil {
		t.Log.Error("share price adjustment failed", "company_id", company.ID, "err", err)
	} else {
		t.Log.Info("share price adjusted",
			"company_id", company.ID,
			"price", result.NewPrice.String(),
			"initialized", result.Initialized,
		)
	}

	if err := t.sweepDecayedEvents(ctx, company.ID); err != nil {
		t.Log.Error("event sweep failed", "company_id", company.ID, "err", err)
	}
}

// refreshCompanyValuePrestige re-upserts the single permanent company-value
// event from the current resolved finances. Idempotent week over week.
func (t *WeeklyTicker) refreshCompanyValuePrestige(ctx context.Context, company *domain.Company) error {
	raw, err := t.FinanceProvider.Snapshot(ctx, company.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to load finances: %w", err)
		}
		raw = domain.FinancialSnapshot{CompanyID: company.ID}
	}
	resolved := domain.ResolveSnapshot(raw)

	amount := CompanyValuePrestige(resolved.CompanyValue)
	_, err = t.Ledger.UpsertBaseEvent(ctx, company.ID, domain.EventKindCompanyValue, company.ID, amount)
	return err
}

// sweepDecayedEvents deletes the owner's events whose value has decayed below
// the prestige noise threshold. Skipping a failed sweep is harmless; the
// events stay negligible and are retried next week.
func (t *WeeklyTicker) sweepDecayedEvents(ctx context.Context, ownerKey string) error {
	ids, err := t.Ledger.Sweep(ctx, ownerKey, ledger.PrestigeEpsilon)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := t.EventRepo.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete %d swept events: %w", len(ids), err)
	}
	t.Log.Info("swept decayed events", "owner_key", ownerKey, "deleted", len(ids))
	return nil
}
