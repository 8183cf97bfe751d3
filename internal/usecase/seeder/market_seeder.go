package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// ShareInitializer is the slice of the share-price engine the seeder needs
type ShareInitializer interface {
	InitializePrice(ctx context.Context, companyID string) (*domain.SharePriceState, error)
}

// MarketSeeder ensures every known company enters the market with an
// initialized share price. Companies created mid-game get their price on the
// next run, so seeding at every startup is safe.
type MarketSeeder struct {
	companies domain.CompanyRepository
	prices    domain.SharePriceRepository
	shares    ShareInitializer
	log       *slog.Logger
}

// NewMarketSeeder creates a new MarketSeeder instance
func NewMarketSeeder(
	companies domain.CompanyRepository,
	prices domain.SharePriceRepository,
	shares ShareInitializer,
	logger *slog.Logger,
) *MarketSeeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketSeeder{
		companies: companies,
		prices:    prices,
		shares:    shares,
		log:       logger,
	}
}

// Seed initializes the share price of every company that does not have one yet
// If a price state already exists, no action is taken
func (s *MarketSeeder) Seed(ctx context.Context) error {
	companies, err := s.companies.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to list companies: %w", err)
	}

	for _, company := range companies {
		state, err := s.prices.Get(ctx, company.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to load price state for %s: %w", company.ID, err)
		}
		if state != nil && state.Initialized {
			continue
		}

		initialized, err := s.shares.InitializePrice(ctx, company.ID)
		if err != nil {
			return fmt.Errorf("failed to initialize share price for %s: %w", company.ID, err)
		}
		s.log.Info("seeded share price",
			"company_id", company.ID,
			"price", initialized.CurrentPrice.String(),
		)
	}

	return nil
}
