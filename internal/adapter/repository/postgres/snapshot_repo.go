package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotHistoryRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new share metrics history repository
func NewSnapshotRepository(db *DB) domain.SnapshotHistoryRepository {
	return &snapshotRepository{db: db}
}

// Save persists the snapshot row for (CompanyID, Week), replacing any existing
// row for the same week
func (r *snapshotRepository) Save(ctx context.Context, snapshot *domain.HistoricalSnapshot) error {
	query := `
		INSERT INTO share_metrics_history (
			company_id, week,
			assets_per_share, cash_per_share, debt_per_share,
			revenue_per_share_fiscal, earnings_per_share_fiscal, dividend_per_share_fiscal,
			revenue_per_share_trailing, earnings_per_share_trailing, dividend_per_share_trailing,
			revenue_growth_trailing, profit_margin_trailing,
			credit_rating, prestige, fixed_asset_ratio,
			book_value_per_share
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (company_id, week) DO UPDATE
		SET assets_per_share = EXCLUDED.assets_per_share,
			cash_per_share = EXCLUDED.cash_per_share,
			debt_per_share = EXCLUDED.debt_per_share,
			revenue_per_share_fiscal = EXCLUDED.revenue_per_share_fiscal,
			earnings_per_share_fiscal = EXCLUDED.earnings_per_share_fiscal,
			dividend_per_share_fiscal = EXCLUDED.dividend_per_share_fiscal,
			revenue_per_share_trailing = EXCLUDED.revenue_per_share_trailing,
			earnings_per_share_trailing = EXCLUDED.earnings_per_share_trailing,
			dividend_per_share_trailing = EXCLUDED.dividend_per_share_trailing,
			revenue_growth_trailing = EXCLUDED.revenue_growth_trailing,
			profit_margin_trailing = EXCLUDED.profit_margin_trailing,
			credit_rating = EXCLUDED.credit_rating,
			prestige = EXCLUDED.prestige,
			fixed_asset_ratio = EXCLUDED.fixed_asset_ratio,
			book_value_per_share = EXCLUDED.book_value_per_share
	`

	m := snapshot.Metrics
	_, err := r.db.ExecContext(ctx, query,
		snapshot.CompanyID,
		snapshot.Week,
		m.AssetsPerShare.String(),
		m.CashPerShare.String(),
		m.DebtPerShare.String(),
		m.RevenuePerShareFiscal.String(),
		m.EarningsPerShareFiscal.String(),
		m.DividendPerShareFiscal.String(),
		m.RevenuePerShareTrailing.String(),
		m.EarningsPerShareTrailing.String(),
		m.DividendPerShareTrailing.String(),
		m.RevenueGrowthTrailing,
		m.ProfitMarginTrailing,
		m.CreditRating,
		m.Prestige,
		m.FixedAssetRatio,
		m.BookValuePerShare.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save share metrics snapshot: %w", err)
	}

	return nil
}

// GetAtWeek retrieves the snapshot for a company at an absolute game week
func (r *snapshotRepository) GetAtWeek(ctx context.Context, companyID string, week int) (*domain.HistoricalSnapshot, error) {
	query := `
		SELECT company_id, week,
			assets_per_share, cash_per_share, debt_per_share,
			revenue_per_share_fiscal, earnings_per_share_fiscal, dividend_per_share_fiscal,
			revenue_per_share_trailing, earnings_per_share_trailing, dividend_per_share_trailing,
			revenue_growth_trailing, profit_margin_trailing,
			credit_rating, prestige, fixed_asset_ratio,
			book_value_per_share
		FROM share_metrics_history
		WHERE company_id = $1 AND week = $2
	`

	var snapshot domain.HistoricalSnapshot
	var m domain.ShareMetricsSnapshot
	decimals := make([]string, 10)

	err := r.db.QueryRowContext(ctx, query, companyID, week).Scan(
		&snapshot.CompanyID,
		&snapshot.Week,
		&decimals[0], &decimals[1], &decimals[2],
		&decimals[3], &decimals[4], &decimals[5],
		&decimals[6], &decimals[7], &decimals[8],
		&m.RevenueGrowthTrailing,
		&m.ProfitMarginTrailing,
		&m.CreditRating,
		&m.Prestige,
		&m.FixedAssetRatio,
		&decimals[9],
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get share metrics snapshot: %w", err)
	}

	targets := []*decimal.Decimal{
		&m.AssetsPerShare, &m.CashPerShare, &m.DebtPerShare,
		&m.RevenuePerShareFiscal, &m.EarningsPerShareFiscal, &m.DividendPerShareFiscal,
		&m.RevenuePerShareTrailing, &m.EarningsPerShareTrailing, &m.DividendPerShareTrailing,
		&m.BookValuePerShare,
	}
	for i, raw := range decimals {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse share metrics decimal column: %w", err)
		}
		*targets[i] = value
	}

	m.CompanyID = snapshot.CompanyID
	m.Week = snapshot.Week
	snapshot.Metrics = m
	return &snapshot, nil
}
