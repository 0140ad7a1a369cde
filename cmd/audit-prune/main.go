// Command audit-prune physically removes review audit records older than
// the configured retention period. It is intended to be invoked by an
// external cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lingoforge/reviewdesk/internal/adapter/postgres"
	"github.com/lingoforge/reviewdesk/internal/adapter/postgres/reviewaudit"
	"github.com/lingoforge/reviewdesk/internal/app"
	"github.com/lingoforge/reviewdesk/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	if !cfg.AuditEnabled() {
		logger.Info("audit trail not configured, nothing to prune")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	repo := reviewaudit.New(pool)

	cutoff := time.Now().AddDate(0, 0, -cfg.Database.AuditRetentionDays)

	pruned, err := repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		logger.Error("prune failed",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		os.Exit(1)
	}

	logger.Info("prune completed",
		slog.Int("pruned", pruned),
		slog.Time("cutoff", cutoff),
	)
}
