package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedReviewEvent inserts one review event for the given lesson and returns
// the persisted record. Zero-valued fields get non-conflicting defaults.
func SeedReviewEvent(t *testing.T, pool *pgxpool.Pool, event domain.ReviewEvent) domain.ReviewEvent {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.LessonID == "" {
		event.LessonID = "lesson-" + suffix
	}
	if event.FlashcardID == "" {
		event.FlashcardID = "fc-" + suffix
	}
	if event.Action == "" {
		event.Action = domain.ReviewActionApprove
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO review_events (id, lesson_id, flashcard_id, draft_id, buffer_id, action, succeeded, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.LessonID, event.FlashcardID, event.DraftID, event.BufferID,
		event.Action.String(), event.Succeeded, event.CreatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReviewEvent insert: %v", err)
	}

	return event
}
