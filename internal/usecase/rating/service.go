package rating

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/norm"
)

// Params are the tunable weights and reference values of the scorer.
// Group weights must sum to less than 1 - BaseCreditRating so good
// performance can raise the rating and penalties can lower it.
type Params struct {
	AssetHealthWeight float64
	PaymentWeight     float64
	StabilityWeight   float64

	// Asset health sub-weights (sum to 1)
	DebtRatioWeight  float64
	CoverageWeight   float64
	LiquidityWeight  float64
	FixedAssetWeight float64

	// Payment history references and weights
	OnTimeReference    int
	PayoffReference    int
	OnTimeWeight       float64
	PayoffWeight       float64
	MissedPenaltyScale float64 // how hard the missed-payment complement bites

	// Stability sub-weights (sum to 1)
	AgeWeight         float64
	ConsistencyWeight float64
	EfficiencyWeight  float64

	// Negative balance penalty
	PenaltyFloorAmount   float64 // absolute threshold floor for one "week negative"
	PenaltyValueFraction float64 // fraction of company value used as threshold
	PenaltyMaxWeeks      int
	MaxPenalty           float64 // maximum subtraction from the final rating
}

// DefaultParams returns the shipped tuning
func DefaultParams() Params {
	return Params{
		AssetHealthWeight: 0.15,
		PaymentWeight:     0.15,
		StabilityWeight:   0.10,

		DebtRatioWeight:  0.35,
		CoverageWeight:   0.30,
		LiquidityWeight:  0.20,
		FixedAssetWeight: 0.15,

		OnTimeReference:    24,
		PayoffReference:    3,
		OnTimeWeight:       0.6,
		PayoffWeight:       0.4,
		MissedPenaltyScale: 0.5,

		AgeWeight:         0.40,
		ConsistencyWeight: 0.35,
		EfficiencyWeight:  0.25,

		PenaltyFloorAmount:   1000,
		PenaltyValueFraction: 0.02,
		PenaltyMaxWeeks:      12,
		MaxPenalty:           0.30,
	}
}

// CreditRatingService produces a [0,1] creditworthiness score with its full
// breakdown, purely as a function of the current financial snapshot and loan
// history. There is no hidden state: the same inputs always produce the same
// breakdown.
type CreditRatingService struct {
	CompanyRepo     domain.CompanyRepository
	FinanceProvider domain.FinanceProvider
	LoanProvider    domain.LoanProvider
	ClockRepo       domain.ClockRepository
	Params          Params
}

// NewCreditRatingService creates a new CreditRatingService instance
func NewCreditRatingService(
	companyRepo domain.CompanyRepository,
	financeProvider domain.FinanceProvider,
	loanProvider domain.LoanProvider,
	clockRepo domain.ClockRepository,
	params Params,
) *CreditRatingService {
	return &CreditRatingService{
		CompanyRepo:     companyRepo,
		FinanceProvider: financeProvider,
		LoanProvider:    loanProvider,
		ClockRepo:       clockRepo,
		Params:          params,
	}
}

// neutralBreakdown is the zero-data result for missing companies: the base
// rating with every group scored zero
func neutralBreakdown(companyID string) *domain.CreditRatingBreakdown {
	return &domain.CreditRatingBreakdown{
		CompanyID:   companyID,
		BaseRating:  domain.BaseCreditRating,
		FinalRating: domain.BaseCreditRating,
	}
}

// CalculateCreditRating recomputes the company's rating from scratch.
// Logic:
//  1. Resolve the financial snapshot (single documented fallback precedence)
//  2. Score asset health, payment history and company stability, each in [0,1]
//  3. Estimate the negative-balance penalty (subtractive)
//  4. FinalRating = clamp(base + sum(group score x group weight) + penalty, 0, 1)
//
// Missing companies, loans or snapshots degrade to neutral defaults; the
// simulation tick never fails because data is absent.
func (s *CreditRatingService) CalculateCreditRating(ctx context.Context, companyID string) (*domain.CreditRatingBreakdown, error) {
	now, err := s.ClockRepo.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read game clock: %w", err)
	}

	company, err := s.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return neutralBreakdown(companyID), nil
		}
		return nil, fmt.Errorf("failed to load company %s: %w", companyID, err)
	}

	raw, err := s.FinanceProvider.Snapshot(ctx, companyID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load finances for %s: %w", companyID, err)
		}
		raw = domain.FinancialSnapshot{CompanyID: companyID}
	}
	snapshot := domain.ResolveSnapshot(raw)

	loans, err := s.LoanProvider.ActiveLoans(ctx, companyID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load loans for %s: %w", companyID, err)
	}
	history, err := s.LoanProvider.PaymentHistory(ctx, companyID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load payment history for %s: %w", companyID, err)
	}

	breakdown := &domain.CreditRatingBreakdown{
		CompanyID:       companyID,
		BaseRating:      domain.BaseCreditRating,
		AssetHealth:     s.scoreAssetHealth(snapshot, loans),
		PaymentRecord:   s.scorePaymentHistory(history),
		Stability:       s.scoreStability(company, snapshot, now),
		NegativePenalty: s.negativeBalancePenalty(snapshot),
	}

	final := breakdown.BaseRating + breakdown.NegativePenalty
	for _, group := range breakdown.Groups() {
		final += group.Contribution()
	}
	breakdown.FinalRating = norm.ClampUnit(final)
	return breakdown, nil
}

// scoreAssetHealth combines debt-to-asset, asset coverage, liquidity and the
// fixed-asset ratio. Companies with no outstanding debt get the perfect
// sentinel for coverage and liquidity instead of a division by zero.
func (s *CreditRatingService) scoreAssetHealth(snapshot domain.FinancialSnapshot, loans []domain.Loan) domain.FactorGroup {
	debt := snapshot.TotalDebt.InexactFloat64()
	if len(loans) > 0 {
		debt = 0
		for _, loan := range loans {
			debt += loan.RemainingBalance.InexactFloat64()
		}
	}
	assets := snapshot.TotalAssets.InexactFloat64()
	cash := snapshot.CashMoney.InexactFloat64()
	fixed := snapshot.FixedAssets.InexactFloat64()

	var debtRatio, coverage, liquidity float64
	switch {
	case debt <= 0:
		debtRatio = 0
		coverage = norm.PerfectCoverage
		liquidity = norm.PerfectCoverage
	case assets <= 0:
		debtRatio = math.Inf(1)
		coverage = 0
		liquidity = cash / debt
	default:
		debtRatio = debt / assets
		coverage = assets / debt
		liquidity = cash / debt
	}

	fixedRatio := 0.0
	if assets > 0 {
		fixedRatio = fixed / assets
	}

	p := s.Params
	factors := []domain.Factor{
		{Name: "debt_to_asset", Raw: debtRatio, Normalized: norm.DebtToAssetScore(debtRatio), Weight: p.DebtRatioWeight},
		{Name: "asset_coverage", Raw: coverage, Normalized: norm.AssetCoverageScore(coverage), Weight: p.CoverageWeight},
		{Name: "liquidity", Raw: liquidity, Normalized: norm.LiquidityScore(liquidity), Weight: p.LiquidityWeight},
		{Name: "fixed_asset_ratio", Raw: fixedRatio, Normalized: norm.FixedAssetScore(fixedRatio), Weight: p.FixedAssetWeight},
	}
	return buildGroup("asset_health", factors, p.AssetHealthWeight)
}

// scorePaymentHistory rewards on-time payments and completed payoffs, then
// subtracts the missed-payment complement
func (s *CreditRatingService) scorePaymentHistory(history domain.PaymentHistory) domain.FactorGroup {
	p := s.Params

	onTime := norm.ClampUnit(float64(history.OnTimePayments) / float64(p.OnTimeReference))
	payoffs := norm.ClampUnit(float64(history.LoanPayoffs) / float64(p.PayoffReference))
	missed := norm.MissedPaymentScore(history.MissedPayments)

	factors := []domain.Factor{
		{Name: "on_time_payments", Raw: float64(history.OnTimePayments), Normalized: onTime, Weight: p.OnTimeWeight},
		{Name: "loan_payoffs", Raw: float64(history.LoanPayoffs), Normalized: payoffs, Weight: p.PayoffWeight},
		{Name: "missed_payments", Raw: float64(history.MissedPayments), Normalized: missed, Weight: 0},
	}

	score := onTime*p.OnTimeWeight + payoffs*p.PayoffWeight - (1-missed)*p.MissedPenaltyScale
	return domain.FactorGroup{
		Name:    "payment_history",
		Factors: factors,
		Score:   norm.ClampUnit(score),
		Weight:  p.PaymentWeight,
	}
}

// scoreStability combines company age (through the shared age curve), profit
// consistency over the last four seasons, and expense efficiency
func (s *CreditRatingService) scoreStability(company *domain.Company, snapshot domain.FinancialSnapshot, now domain.GameDate) domain.FactorGroup {
	p := s.Params

	ageYears := company.AgeYears(now)
	ageScore := norm.AgeModifier(ageYears)
	consistency := profitConsistency(snapshot)
	efficiency := expenseEfficiency(snapshot)

	factors := []domain.Factor{
		{Name: "company_age", Raw: ageYears, Normalized: ageScore, Weight: p.AgeWeight},
		{Name: "profit_consistency", Raw: float64(len(snapshot.SeasonalProfits)), Normalized: consistency, Weight: p.ConsistencyWeight},
		{Name: "expense_efficiency", Raw: snapshot.Expenses.InexactFloat64(), Normalized: efficiency, Weight: p.EfficiencyWeight},
	}
	return buildGroup("stability", factors, p.StabilityWeight)
}

// profitConsistency inverts the coefficient of variation of the last four
// seasonal profits. Fewer than two data points is neutral (0.5); a
// non-positive mean scores zero.
func profitConsistency(snapshot domain.FinancialSnapshot) float64 {
	profits := snapshot.SeasonalProfits
	if len(profits) > 4 {
		profits = profits[:4]
	}
	if len(profits) < 2 {
		return 0.5
	}

	mean := 0.0
	for _, p := range profits {
		mean += p.InexactFloat64()
	}
	mean /= float64(len(profits))
	if mean <= 0 {
		return 0
	}

	variance := 0.0
	for _, p := range profits {
		d := p.InexactFloat64() - mean
		variance += d * d
	}
	variance /= float64(len(profits))

	cv := math.Sqrt(variance) / mean
	return norm.ClampUnit(1 - cv)
}

// expenseEfficiency scores 1 - expenses/income; companies with no income
// score zero
func expenseEfficiency(snapshot domain.FinancialSnapshot) float64 {
	income := snapshot.Income.InexactFloat64()
	if income <= 0 {
		return 0
	}
	return norm.ClampUnit(1 - snapshot.Expenses.InexactFloat64()/income)
}

// negativeBalancePenalty estimates how long the company has been overdrawn
// by comparing the negative amount against a company-value-scaled threshold,
// so the penalty is proportionally fair across company sizes. The week count
// is an inference from the balance magnitude, not a tracked streak.
func (s *CreditRatingService) negativeBalancePenalty(snapshot domain.FinancialSnapshot) float64 {
	cash := snapshot.CashMoney.InexactFloat64()
	if cash >= 0 {
		return 0
	}

	p := s.Params
	threshold := math.Max(p.PenaltyFloorAmount, p.PenaltyValueFraction*snapshot.CompanyValue.InexactFloat64())
	estWeeks := math.Min(float64(p.PenaltyMaxWeeks), -cash/threshold)
	severity := norm.ClampUnit(estWeeks / float64(p.PenaltyMaxWeeks))
	return -p.MaxPenalty * severity
}

// buildGroup computes the weighted factor combination for a group whose
// sub-weights sum to 1
func buildGroup(name string, factors []domain.Factor, weight float64) domain.FactorGroup {
	score := 0.0
	for _, f := range factors {
		score += f.Normalized * f.Weight
	}
	return domain.FactorGroup{
		Name:    name,
		Factors: factors,
		Score:   norm.ClampUnit(score),
		Weight:  weight,
	}
}
