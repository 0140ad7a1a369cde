// Command reviewdesk serves the flashcard draft review backend: it proxies
// the external generation service, tracks the reviewer's working set, and
// optionally persists an audit trail of review decisions to PostgreSQL.
//
// Exit codes: 0 = clean shutdown, 1 = fatal error.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lingoforge/reviewdesk/internal/app"
	"github.com/lingoforge/reviewdesk/internal/config"
)

func main() {
	// A missing .env is fine; real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Printf("reviewdesk: %v", err)
		os.Exit(1)
	}
}
