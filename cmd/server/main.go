package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cellarworks/vintner-backend/internal/adapter/httpapi"
	"github.com/cellarworks/vintner-backend/internal/adapter/repository/postgres"
	"github.com/cellarworks/vintner-backend/internal/config"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/rating"
	"github.com/cellarworks/vintner-backend/internal/usecase/seeder"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServerFromEnv()
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

	marketSeeder := seeder.NewMarketSeeder(companyRepo, priceRepo, shareService, logger)
	if err := marketSeeder.Seed(ctx); err != nil {
		logger.Error("failed to seed share prices", "error", err)
		os.Exit(1)
	}

	api := httpapi.New(cfg.AuthToken, logger, ledgerService, ratingService, shareService, eventRepo)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting api server", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
