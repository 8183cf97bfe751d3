package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cellarworks/vintner-backend/internal/adapter/repository/postgres"
	"github.com/cellarworks/vintner-backend/internal/config"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/rating"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
	"github.com/cellarworks/vintner-backend/internal/usecase/simulation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		logger.Error("invalid tuning file", "path", cfg.TuningPath, "error", err)
		os.Exit(1)
	}

	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := postgres.NewEventRepository(db)
	companyRepo := postgres.NewCompanyRepository(db)
	priceRepo := postgres.NewSharePriceRepository(db)
	historyRepo := postgres.NewSnapshotRepository(db)
	clockRepo := postgres.NewClockRepository(db)
	financeProvider := postgres.NewFinanceProvider(db)
	loanProvider := postgres.NewLoanProvider(db)
	marketProvider := postgres.NewMarketProvider(db)

	ledgerService := ledger.NewPrestigeService(eventRepo, clockRepo)
	ratingService := rating.NewCreditRatingService(
		companyRepo, financeProvider, loanProvider, clockRepo, tuning.RatingParams(),
	)
	shareService := shareprice.NewSharePriceService(
		companyRepo, priceRepo, historyRepo, financeProvider, marketProvider,
		clockRepo, ratingService, ledgerService, tuning.SharePriceParams(),
	)

	ticker := simulation.NewWeeklyTicker(
		companyRepo, financeProvider, clockRepo, eventRepo, ledgerService, shareService, logger,
	)

	if os.Getenv("VINTNER_WORKER_RUN_ONCE") == "true" {
		if _, err := ticker.RunWeeklyTick(ctx); err != nil {
			logger.Error("tick failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting weekly tick worker", "every", cfg.TickEvery.String())
	t := time.NewTicker(cfg.TickEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped")
			return
		case <-t.C:
			if _, err := ticker.RunWeeklyTick(ctx); err != nil {
				logger.Error("tick failed", "error", err)
			}
		}
	}
}
