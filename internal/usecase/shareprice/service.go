package shareprice

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/norm"
)

// RatingProvider supplies the current credit rating breakdown.
// Satisfied by rating.CreditRatingService.
type RatingProvider interface {
	CalculateCreditRating(ctx context.Context, companyID string) (*domain.CreditRatingBreakdown, error)
}

// PrestigeProvider supplies the current aggregated prestige.
// Satisfied by ledger.PrestigeService.
type PrestigeProvider interface {
	CalculateCurrentPrestige(ctx context.Context, ownerKey string) (*ledger.PrestigeResult, error)
}

// MetricContribution is one metric's share of the weekly price movement
type MetricContribution struct {
	Name     string
	Actual   float64
	Expected float64
	DeltaPct float64 // raw percentage deviation before clamping
	Applied  float64 // clamped ratio x weight, as a fraction of current price
}

// AdjustResult is the outcome of one weekly price adjustment
type AdjustResult struct {
	CompanyID         string
	PreviousPrice     decimal.Decimal
	NewPrice          decimal.Decimal
	BookValuePerShare decimal.Decimal
	TotalContribution float64 // fractional price movement before anchoring
	AnchorFactor      float64
	Contributions     []MetricContribution
	Initialized       bool // true when this call initialized the price instead of adjusting it
}

// SharePriceService adjusts a company's share price incrementally, once per
// simulated week, using book value per share as a slowly shifting fundamental
// anchor and eight performance metrics as short-term drivers.
type SharePriceService struct {
	CompanyRepo     domain.CompanyRepository
	PriceRepo       domain.SharePriceRepository
	HistoryRepo     domain.SnapshotHistoryRepository
	FinanceProvider domain.FinanceProvider
	MarketProvider  domain.MarketProvider
	ClockRepo       domain.ClockRepository
	Rating          RatingProvider
	Prestige        PrestigeProvider
	Params          Params
}

// NewSharePriceService creates a new SharePriceService instance
func NewSharePriceService(
	companyRepo domain.CompanyRepository,
	priceRepo domain.SharePriceRepository,
	historyRepo domain.SnapshotHistoryRepository,
	financeProvider domain.FinanceProvider,
	marketProvider domain.MarketProvider,
	clockRepo domain.ClockRepository,
	ratingProvider RatingProvider,
	prestigeProvider PrestigeProvider,
	params Params,
) *SharePriceService {
	return &SharePriceService{
		CompanyRepo:     companyRepo,
		PriceRepo:       priceRepo,
		HistoryRepo:     historyRepo,
		FinanceProvider: financeProvider,
		MarketProvider:  marketProvider,
		ClockRepo:       clockRepo,
		Rating:          ratingProvider,
		Prestige:        prestigeProvider,
		Params:          params,
	}
}

// GetShareMetrics builds the point-in-time share metrics snapshot for a
// company: per-share balance sheet figures, fiscal-year and trailing 48-week
// income figures, and the scalar signals (rating, prestige, fixed-asset
// ratio) the price engine consumes.
func (s *SharePriceService) GetShareMetrics(ctx context.Context, companyID string) (*domain.ShareMetricsSnapshot, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	nowWeek := now.AbsoluteWeek()

	company, err := s.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company %s: %w", companyID, err)
	}
	shares := company.SharesOutstanding
	if shares.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("shares outstanding must be positive")
	}

	raw, err := s.FinanceProvider.Snapshot(ctx, companyID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load finances for %s: %w", companyID, err)
		}
		raw = domain.FinancialSnapshot{CompanyID: companyID}
	}
	snapshot := domain.ResolveSnapshot(raw)

	fiscalStart := nowWeek - nowWeek%domain.WeeksPerYear
	fiscal, err := s.periodTotals(ctx, companyID, fiscalStart, nowWeek)
	if err != nil {
		return nil, err
	}
	trailing, err := s.periodTotals(ctx, companyID, nowWeek-domain.WeeksPerYear, nowWeek)
	if err != nil {
		return nil, err
	}
	prior, err := s.periodTotals(ctx, companyID, nowWeek-2*domain.WeeksPerYear, nowWeek-domain.WeeksPerYear)
	if err != nil {
		return nil, err
	}

	ratingBreakdown, err := s.Rating.CalculateCreditRating(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute credit rating for %s: %w", companyID, err)
	}
	prestigeResult, err := s.Prestige.CalculateCurrentPrestige(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute prestige for %s: %w", companyID, err)
	}

	assets := snapshot.TotalAssets.InexactFloat64()
	fixedRatio := 0.0
	if assets > 0 {
		fixedRatio = norm.ClampUnit(snapshot.FixedAssets.InexactFloat64() / assets)
	}

	metrics := &domain.ShareMetricsSnapshot{
		CompanyID: companyID,
		Week:      nowWeek,

		AssetsPerShare: snapshot.TotalAssets.Div(shares),
		CashPerShare:   snapshot.CashMoney.Div(shares),
		DebtPerShare:   snapshot.TotalDebt.Div(shares),

		RevenuePerShareFiscal:    fiscal.Revenue.Div(shares),
		EarningsPerShareFiscal:   fiscal.Profit.Div(shares),
		DividendPerShareFiscal:   fiscal.Dividends.Div(shares),
		RevenuePerShareTrailing:  trailing.Revenue.Div(shares),
		EarningsPerShareTrailing: trailing.Profit.Div(shares),
		DividendPerShareTrailing: trailing.Dividends.Div(shares),

		RevenueGrowthTrailing: revenueGrowth(trailing.Revenue, prior.Revenue),
		ProfitMarginTrailing:  profitMargin(trailing),

		CreditRating:    ratingBreakdown.FinalRating,
		Prestige:        prestigeResult.Total,
		FixedAssetRatio: fixedRatio,

		BookValuePerShare: snapshot.TotalAssets.Sub(snapshot.TotalDebt).Div(shares),
	}
	return metrics, nil
}

// periodTotals wraps the finance provider with missing-data tolerance:
// periods before the company existed come back zeroed
func (s *SharePriceService) periodTotals(ctx context.Context, companyID string, fromWeek, toWeek int) (domain.PeriodTotals, error) {
	if fromWeek < 0 {
		fromWeek = 0
	}
	if toWeek <= fromWeek {
		return domain.PeriodTotals{}, nil
	}
	totals, err := s.FinanceProvider.PeriodTotals(ctx, companyID, fromWeek, toWeek)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.PeriodTotals{}, nil
		}
		return domain.PeriodTotals{}, fmt.Errorf("failed to load period totals for %s [%d,%d): %w", companyID, fromWeek, toWeek, err)
	}
	return totals, nil
}

// revenueGrowth is the fractional growth of the trailing window over the
// prior one. A non-positive prior window falls back to +100% growth when
// revenue appeared, 0% otherwise.
func revenueGrowth(trailing, prior decimal.Decimal) float64 {
	p := prior.InexactFloat64()
	t := trailing.InexactFloat64()
	if p <= 0 {
		if t > 0 {
			return 1.0
		}
		return 0
	}
	return (t - p) / p
}

// profitMargin is trailing profit over trailing revenue; zero revenue
// degrades to a zero margin
func profitMargin(totals domain.PeriodTotals) float64 {
	revenue := totals.Revenue.InexactFloat64()
	if revenue <= 0 {
		return 0
	}
	return totals.Profit.InexactFloat64() / revenue
}

// InitializePrice sets a company's price to its current book value per share.
// It is the only transition out of the uninitialized state; calling it on an
// initialized company is rejected.
func (s *SharePriceService) InitializePrice(ctx context.Context, companyID string) (*domain.SharePriceState, error) {
	existing, err := s.PriceRepo.Get(ctx, companyID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load price state for %s: %w", companyID, err)
	}
	if existing != nil && existing.Initialized {
		return nil, fmt.Errorf("share price for %s is already initialized", companyID)
	}

	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	metrics, err := s.GetShareMetrics(ctx, companyID)
	if err != nil {
		return nil, err
	}

	book := flooredBook(metrics.BookValuePerShare)
	state := &domain.SharePriceState{
		CompanyID:         companyID,
		CurrentPrice:      book,
		BookValuePerShare: book,
		Initialized:       true,
		UpdatedWeek:       now.AbsoluteWeek(),
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if err := s.PriceRepo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save price state for %s: %w", companyID, err)
	}
	return state, nil
}

// AdjustWeekly performs the once-per-week incremental price adjustment.
// Logic:
//  1. Build the current share metrics snapshot and persist it as this week's
//     history row
//  2. Compute expected performance from stored baselines scaled by the
//     economy phase, prestige and growth-trend multipliers
//  3. For each of the eight metrics, compute the percentage delta from its
//     expectation, clamp it, weight it, and sum the contributions
//  4. Damp the summed contribution by the anchor factor
//     1 / (1 + strength * deviation^exponent) and add the reversion drift
//     toward book value
//  5. Floor the result at max(0.01, book value x MinPriceRatio)
//
// Metrics that need a full year of history (growth, margin, earnings, and
// the three trend deltas) contribute zero until the company is old enough.
// Uninitialized companies are initialized instead of adjusted.
func (s *SharePriceService) AdjustWeekly(ctx context.Context, companyID string) (*AdjustResult, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}
	nowWeek := now.AbsoluteWeek()

	state, err := s.PriceRepo.Get(ctx, companyID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !state.Initialized) {
		initialized, initErr := s.InitializePrice(ctx, companyID)
		if initErr != nil {
			return nil, initErr
		}
		return &AdjustResult{
			CompanyID:         companyID,
			NewPrice:          initialized.CurrentPrice,
			PreviousPrice:     initialized.CurrentPrice,
			BookValuePerShare: initialized.BookValuePerShare,
			AnchorFactor:      1.0,
			Initialized:       true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load price state for %s: %w", companyID, err)
	}

	company, err := s.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company %s: %w", companyID, err)
	}

	metrics, err := s.GetShareMetrics(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.HistoryRepo.Save(ctx, &domain.HistoricalSnapshot{
		CompanyID: companyID,
		Week:      nowWeek,
		Metrics:   *metrics,
	}); err != nil {
		return nil, fmt.Errorf("failed to save history row for %s: %w", companyID, err)
	}

	baselines, err := s.MarketProvider.Baselines(ctx, companyID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load baselines for %s: %w", companyID, err)
		}
		baselines = defaultBaselines()
	}
	phase, err := s.MarketProvider.Phase(ctx)
	if err != nil {
		phase = domain.EconomyStable
	}

	book := flooredBook(metrics.BookValuePerShare)
	bookF := book.InexactFloat64()
	prevPrice := state.CurrentPrice
	priceF := prevPrice.InexactFloat64()

	expected := s.computeExpected(baselines, phase, metrics.Prestige, bookF)

	// One cached history lookup per (weeksAgo) within this cycle
	past := s.lookupMetricsWeeksAgo(ctx, companyID, nowWeek, s.Params.GraceWeeks)

	inGrace := nowWeek-company.FoundedWeek < s.Params.GraceWeeks
	p := s.Params.Metrics

	deltas := []MetricContribution{
		contribution("earnings_per_share", metrics.EarningsPerShareTrailing.InexactFloat64(), expected.EarningsPerShare, p.EarningsPerShare, inGrace),
		contribution("revenue_per_share", metrics.RevenuePerShareTrailing.InexactFloat64(), expected.RevenuePerShare, p.RevenuePerShare, false),
		contribution("dividend_per_share", metrics.DividendPerShareTrailing.InexactFloat64(), expected.DividendPerShare, p.DividendPerShare, false),
		contribution("revenue_growth", metrics.RevenueGrowthTrailing, expected.RevenueGrowth, p.RevenueGrowth, inGrace),
		contribution("profit_margin", metrics.ProfitMarginTrailing, expected.ProfitMargin, p.ProfitMargin, inGrace),
		trendContribution("credit_rating_trend", metrics.CreditRating, past, func(m *domain.ShareMetricsSnapshot) float64 { return m.CreditRating }, p.CreditRating, inGrace),
		trendContribution("fixed_asset_trend", metrics.FixedAssetRatio, past, func(m *domain.ShareMetricsSnapshot) float64 { return m.FixedAssetRatio }, p.FixedAssetRatio, inGrace),
		trendContribution("prestige_trend", metrics.Prestige, past, func(m *domain.ShareMetricsSnapshot) float64 { return m.Prestige }, p.Prestige, inGrace),
	}

	total := 0.0
	for _, d := range deltas {
		total += d.Applied
	}

	deviation := math.Abs(priceF-bookF) / bookF
	anchorFactor := 1 / (1 + s.Params.AnchorStrength*math.Pow(deviation, s.Params.AnchorExponent))

	newPriceF := priceF + total*priceF*anchorFactor + (bookF-priceF)*s.Params.ReversionRate
	minPrice := math.Max(0.01, bookF*s.Params.MinPriceRatio)
	if newPriceF < minPrice {
		newPriceF = minPrice
	}

	newPrice := decimal.NewFromFloat(newPriceF).Round(4)
	state.CurrentPrice = newPrice
	state.BookValuePerShare = book
	state.UpdatedWeek = nowWeek
	if err := s.PriceRepo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save price state for %s: %w", companyID, err)
	}

	return &AdjustResult{
		CompanyID:         companyID,
		PreviousPrice:     prevPrice,
		NewPrice:          newPrice,
		BookValuePerShare: book,
		TotalContribution: total,
		AnchorFactor:      anchorFactor,
		Contributions:     deltas,
	}, nil
}

// lookupMetricsWeeksAgo fetches the history row from weeksAgo weeks back,
// tolerating absence (young companies have no row yet)
func (s *SharePriceService) lookupMetricsWeeksAgo(ctx context.Context, companyID string, nowWeek, weeksAgo int) *domain.ShareMetricsSnapshot {
	week := nowWeek - weeksAgo
	if week < 0 {
		return nil
	}
	row, err := s.HistoryRepo.GetAtWeek(ctx, companyID, week)
	if err != nil || row == nil {
		return nil
	}
	return &row.Metrics
}

// contribution computes one metric's applied fractional movement
func contribution(name string, actual, expected float64, param MetricParam, suppressed bool) MetricContribution {
	c := MetricContribution{Name: name, Actual: actual, Expected: expected}
	if suppressed {
		return c
	}
	c.DeltaPct = percentDelta(actual, expected)
	c.Applied = norm.Clamp(c.DeltaPct/100, -param.MaxMove, param.MaxMove) * param.Weight
	return c
}

// trendContribution measures a signal against its own value 48 weeks ago
func trendContribution(name string, actual float64, past *domain.ShareMetricsSnapshot, extract func(*domain.ShareMetricsSnapshot) float64, param MetricParam, suppressed bool) MetricContribution {
	if suppressed || past == nil {
		return MetricContribution{Name: name, Actual: actual}
	}
	return contribution(name, actual, extract(past), param, false)
}

// flooredBook keeps the anchor strictly positive so deviation math stays
// defined even for companies with negative book equity
func flooredBook(book decimal.Decimal) decimal.Decimal {
	cent := decimal.NewFromFloat(0.01)
	if book.LessThan(cent) {
		return cent
	}
	return book
}
