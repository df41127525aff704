package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/patio/internal/audit"
	auditStore "github.com/MrJamesThe3rd/patio/internal/audit/store"
	"github.com/MrJamesThe3rd/patio/internal/config"
	"github.com/MrJamesThe3rd/patio/internal/customer"
	customerStore "github.com/MrJamesThe3rd/patio/internal/customer/store"
	"github.com/MrJamesThe3rd/patio/internal/database"
	"github.com/MrJamesThe3rd/patio/internal/export"
	patioHttp "github.com/MrJamesThe3rd/patio/internal/http"
	customerHandler "github.com/MrJamesThe3rd/patio/internal/http/customer"
	movementHandler "github.com/MrJamesThe3rd/patio/internal/http/movement"
	tillHandler "github.com/MrJamesThe3rd/patio/internal/http/till"
	"github.com/MrJamesThe3rd/patio/internal/importer"
	"github.com/MrJamesThe3rd/patio/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/patio/internal/ledger/store"
	"github.com/MrJamesThe3rd/patio/internal/logging"
	"github.com/MrJamesThe3rd/patio/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg.Log.Level, cfg.Log.Format).With("app", cfg.App.Name))

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	var (
		ledgerService = ledger.NewService(ledgerStore.New(db), ledger.Options{
			HistoryLimit:    cfg.Ledger.HistoryLimit,
			ListLimit:       cfg.Ledger.ListLimit,
			StrictSelection: cfg.Ledger.StrictSelection,
			Observer:        m,
		})
		customerService = customer.NewService(customerStore.New(db))
		auditService    = audit.NewService(auditStore.New(db))
		importService   = importer.NewService()
		exportService   = export.NewService(ledgerService)
	)

	var (
		movementH = movementHandler.NewHandler(ledgerService, auditService, cfg.Ticket.Header, cfg.Ticket.Cols)
		customerH = customerHandler.NewHandler(customerService, ledgerService, importService, auditService)
		tillH     = tillHandler.NewHandler(ledgerService, exportService)
	)

	router := patioHttp.New(patioHttp.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Timeout:     cfg.Server.Timeout,
		Metrics:     m,
		DB:          db,
	}, movementH, customerH, tillH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "addr", srv.Addr, "strict_selection", cfg.Ledger.StrictSelection)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
