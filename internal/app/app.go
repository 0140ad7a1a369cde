package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lingoforge/reviewdesk/internal/adapter/genservice"
	"github.com/lingoforge/reviewdesk/internal/adapter/postgres"
	"github.com/lingoforge/reviewdesk/internal/adapter/postgres/reviewaudit"
	"github.com/lingoforge/reviewdesk/internal/config"
	"github.com/lingoforge/reviewdesk/internal/service/review"
	"github.com/lingoforge/reviewdesk/internal/transport/middleware"
	"github.com/lingoforge/reviewdesk/internal/transport/rest"
	"github.com/lingoforge/reviewdesk/migrations"
)

// Run wires the application together and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := NewLogger(cfg.Log)

	logger.Info("starting reviewdesk",
		slog.String("version", BuildVersion()),
		slog.String("generation_base_url", cfg.Generation.BaseURL),
		slog.Bool("audit_enabled", cfg.AuditEnabled()),
	)

	genClient := genservice.New(cfg.Generation, logger)

	store := review.NewStore(logger, genClient)

	// The audit trail is optional: without a database DSN review decisions
	// are only logged, not persisted.
	var (
		auditRecorder review.AuditRecorder
		auditRepo     *reviewaudit.Repo
		dbPinger      rest.Pinger
	)
	if cfg.AuditEnabled() {
		if err := postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		auditRepo = reviewaudit.New(pool)
		auditRecorder = auditRepo
		dbPinger = pool
	}

	controller := review.NewController(
		logger, genClient, store, auditRecorder,
		cfg.Review.PageIncrement, cfg.Review.DefaultBatchSize,
	)

	resolver := review.NewURLResolver(cfg.Generation.StorageHostPattern, cfg.Generation.LegacyURLScan)
	mediaManager := review.NewMediaManager(logger, genClient, store, resolver)

	reviewHandler := rest.NewReviewHandler(controller, store, logger)
	mediaHandler := rest.NewMediaHandler(mediaManager, logger)
	healthHandler := rest.NewHealthHandler(genClient, dbPinger, BuildVersion())

	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.HandleFunc("POST /api/session/lesson", reviewHandler.SetLesson)
	mux.HandleFunc("GET /api/session/lesson", reviewHandler.GetLesson)

	// Generation routes call the slow AI backend, so they get their own
	// rate limit on top of the single-flight guard in the controller.
	generateLimit := middleware.Middleware(func(next http.Handler) http.Handler { return next })
	if cfg.Server.GenerateRateLimit > 0 {
		limiter := middleware.NewRateLimiter(time.Minute)
		defer limiter.Stop()
		generateLimit = limiter.Limit(cfg.Server.GenerateRateLimit)
	}
	mux.Handle("POST /api/flashcards/load", generateLimit(http.HandlerFunc(reviewHandler.LoadFlashcards)))
	mux.Handle("POST /api/flashcards/generate", generateLimit(http.HandlerFunc(reviewHandler.Generate)))

	mux.HandleFunc("GET /api/flashcards", reviewHandler.ListFlashcards)
	mux.HandleFunc("POST /api/flashcards/more", reviewHandler.LoadMore)
	mux.HandleFunc("POST /api/flashcards/{id}/approve", reviewHandler.Approve)
	mux.HandleFunc("POST /api/flashcards/approve-all", reviewHandler.ApproveAll)
	mux.HandleFunc("POST /api/flashcards/{id}/reject", reviewHandler.Reject)
	mux.HandleFunc("PUT /api/flashcards/{id}/raw", reviewHandler.UpdateRaw)

	mux.HandleFunc("PUT /api/drafts/{draftId}/flashcards/{flashcardId}/media", mediaHandler.Upload)
	mux.HandleFunc("GET /api/uploads", mediaHandler.Tasks)

	if auditRepo != nil {
		auditHandler := rest.NewAuditHandler(auditRepo, logger)
		mux.HandleFunc("GET /api/audit/events", auditHandler.Events)
		mux.HandleFunc("GET /api/audit/summary", auditHandler.Summary)
	}

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
