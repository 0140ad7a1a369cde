// Package reviewaudit implements the review audit trail using PostgreSQL.
// It provides append-only operations for review decision records.
package reviewaudit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

const table = "review_events"

var columns = []string{
	"id", "lesson_id", "flashcard_id", "draft_id", "buffer_id",
	"action", "succeeded", "created_at",
}

// psql builds queries with PostgreSQL-style $N placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides review event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new review audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Record inserts one review event. Satisfies review.AuditRecorder.
func (r *Repo) Record(ctx context.Context, event domain.ReviewEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if !event.Action.IsValid() {
		return domain.NewValidationError("action", "unknown review action")
	}

	sql, args, err := psql.
		Insert(table).
		Columns(columns...).
		Values(
			event.ID, event.LessonID, event.FlashcardID, event.DraftID,
			event.BufferID, event.Action.String(), event.Succeeded, event.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build review_event insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return mapError(err, "review_event", event.ID)
	}
	return nil
}

// ListByLesson returns the decision history for one lesson, newest first.
func (r *Repo) ListByLesson(ctx context.Context, lessonID string, limit int) ([]domain.ReviewEvent, error) {
	query := psql.
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"lesson_id": lessonID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	return r.list(ctx, query)
}

// ListRecent returns the newest events across all lessons with pagination.
func (r *Repo) ListRecent(ctx context.Context, limit, offset int) ([]domain.ReviewEvent, error) {
	query := psql.
		Select(columns...).
		From(table).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.list(ctx, query)
}

// CountByAction returns how many events exist per action for one lesson.
func (r *Repo) CountByAction(ctx context.Context, lessonID string) (map[domain.ReviewAction]int, error) {
	sql, args, err := psql.
		Select("action", "count(*)").
		From(table).
		Where(squirrel.Eq{"lesson_id": lessonID}).
		GroupBy("action").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review_event count: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("count review_events: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ReviewAction]int)
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan review_event count: %w", err)
		}
		counts[domain.ReviewAction(action)] = n
	}
	return counts, rows.Err()
}

// PurgeOlderThan deletes events created before the cutoff and returns the
// number of rows removed.
func (r *Repo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	sql, args, err := psql.
		Delete(table).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build review_event purge: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge review_events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repo) list(ctx context.Context, query squirrel.SelectBuilder) ([]domain.ReviewEvent, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review_event select: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list review_events: %w", err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var e domain.ReviewEvent
		var action string
		if err := rows.Scan(
			&e.ID, &e.LessonID, &e.FlashcardID, &e.DraftID, &e.BufferID,
			&action, &e.Succeeded, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review_event: %w", err)
		}
		e.Action = domain.ReviewAction(action)
		events = append(events, e)
	}
	return events, rows.Err()
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
