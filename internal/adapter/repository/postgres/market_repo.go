package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// marketProvider implements domain.MarketProvider
type marketProvider struct {
	db *DB
}

// NewMarketProvider creates a new market provider
func NewMarketProvider(db *DB) domain.MarketProvider {
	return &marketProvider{db: db}
}

// Phase returns the current economy phase. A game without a stored phase
// reads as stable.
func (r *marketProvider) Phase(ctx context.Context) (domain.EconomyPhase, error) {
	query := `SELECT phase FROM market_state WHERE id = 1`

	var phase string
	err := r.db.QueryRowContext(ctx, query).Scan(&phase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.EconomyStable, nil
		}
		return domain.EconomyStable, fmt.Errorf("failed to read market state: %w", err)
	}

	return domain.EconomyPhase(phase), nil
}

// Baselines returns the stored expectation baselines for a company
func (r *marketProvider) Baselines(ctx context.Context, companyID string) (domain.ExpectedBaselines, error) {
	query := `
		SELECT revenue_growth, profit_margin, earnings_per_share, growth_trend
		FROM expectation_baselines
		WHERE company_id = $1
	`

	var baselines domain.ExpectedBaselines
	var epsStr string

	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&baselines.RevenueGrowth,
		&baselines.ProfitMargin,
		&epsStr,
		&baselines.GrowthTrend,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ExpectedBaselines{}, domain.ErrNotFound
		}
		return domain.ExpectedBaselines{}, fmt.Errorf("failed to get expectation baselines: %w", err)
	}

	// Parse earnings_per_share (DECIMAL)
	eps, err := decimal.NewFromString(epsStr)
	if err != nil {
		return domain.ExpectedBaselines{}, fmt.Errorf("failed to parse earnings_per_share: %w", err)
	}
	baselines.EarningsPerShare = eps

	return baselines, nil
}
