package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"bookkeeper/internal/adapters/web"
	"bookkeeper/internal/core"
	"bookkeeper/internal/db"
	"bookkeeper/internal/logger"
	"bookkeeper/internal/store"
)

func main() {
	_ = godotenv.Load()
	logger.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)
	clock := core.SystemClock()

	vendors := core.NewVendorService(pg, logger.WithComponent("vendors"))
	invoices := core.NewInvoiceService(pg, clock, logger.WithComponent("invoices"))
	accruals := core.NewAccrualEngine(pg, logger.WithComponent("accruals"))
	reporting := core.NewReportingService(pg)

	schedule := os.Getenv("ACCRUAL_SCHEDULE")
	if schedule == "" {
		schedule = "0 0 1 * *"
	}
	scheduler := cron.New()
	_, err = scheduler.AddFunc(schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		run, err := accruals.RunAccrualCycle(runCtx, clock.Now().UTC())
		if err != nil {
			log.Error().Err(err).Msg("scheduled accrual cycle failed")
			return
		}
		log.Info().
			Int("posted", run.Posted).
			Int("skipped", run.Skipped).
			Int("failed", run.Failed).
			Msg("scheduled accrual cycle complete")
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", schedule).Msg("invalid accrual schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	var allowedOrigins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
		}
	}

	handler := web.NewHandler(vendors, invoices, accruals, reporting, clock, logger.WithComponent("web"))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler.Router(allowedOrigins)); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
