package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// sharePriceRepository implements domain.SharePriceRepository
type sharePriceRepository struct {
	db *DB
}

// NewSharePriceRepository creates a new share price state repository
func NewSharePriceRepository(db *DB) domain.SharePriceRepository {
	return &sharePriceRepository{db: db}
}

// Get retrieves the price state for a company
func (r *sharePriceRepository) Get(ctx context.Context, companyID string) (*domain.SharePriceState, error) {
	query := `
		SELECT company_id, current_price, book_value_per_share, initialized, updated_week
		FROM share_price_states
		WHERE company_id = $1
	`

	var state domain.SharePriceState
	var priceStr, bookStr string

	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&state.CompanyID,
		&priceStr,
		&bookStr,
		&state.Initialized,
		&state.UpdatedWeek,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get share price state: %w", err)
	}

	// Parse current_price (DECIMAL)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	state.CurrentPrice = price

	// Parse book_value_per_share (DECIMAL)
	book, err := decimal.NewFromString(bookStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse book_value_per_share: %w", err)
	}
	state.BookValuePerShare = book

	return &state, nil
}

// Save persists the price state, replacing any existing row for the company
func (r *sharePriceRepository) Save(ctx context.Context, state *domain.SharePriceState) error {
	query := `
		INSERT INTO share_price_states (company_id, current_price, book_value_per_share, initialized, updated_week)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id) DO UPDATE
		SET current_price = EXCLUDED.current_price,
			book_value_per_share = EXCLUDED.book_value_per_share,
			initialized = EXCLUDED.initialized,
			updated_week = EXCLUDED.updated_week
	`

	_, err := r.db.ExecContext(ctx, query,
		state.CompanyID,
		state.CurrentPrice.String(),
		state.BookValuePerShare.String(),
		state.Initialized,
		state.UpdatedWeek,
	)
	if err != nil {
		return fmt.Errorf("failed to save share price state: %w", err)
	}

	return nil
}
