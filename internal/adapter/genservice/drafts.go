package genservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// ListDrafts fetches all pending drafts across lessons.
//
// A response with success=false or without a drafts collection yields an
// empty slice, not an error: "no drafts" is a normal, displayable state.
// Transport failures are returned as errors for the caller to recover from.
func (c *Client) ListDrafts(ctx context.Context) ([]domain.Draft, error) {
	env, err := c.getJSON(ctx, "/ai/drafts")
	if err != nil {
		return nil, err
	}

	payload := domain.RawRecord(env.Payload)
	rawDrafts, ok := payload["drafts"].([]any)
	if !env.Success || !ok {
		return []domain.Draft{}, nil
	}

	drafts := make([]domain.Draft, 0, len(rawDrafts))
	for _, rd := range rawDrafts {
		m, ok := rd.(map[string]any)
		if !ok {
			continue
		}
		rec := domain.RawRecord(m)

		draft := domain.Draft{
			DraftID:  rec.String("_id", "draft_id", "draftId"),
			BufferID: rec.String("buffer_id", "bufferId"),
			LessonID: rec.String("lesson_id", "lessonId"),
		}

		if cards, ok := m["flashcards"].([]any); ok {
			draft.Flashcards = make([]domain.RawRecord, 0, len(cards))
			for _, card := range cards {
				if cm, ok := card.(map[string]any); ok {
					draft.Flashcards = append(draft.Flashcards, domain.RawRecord(cm))
				}
			}
		}

		drafts = append(drafts, draft)
	}

	c.log.DebugContext(ctx, "listed drafts", slog.Int("count", len(drafts)))

	return drafts, nil
}

// GeneratePreview asks the service to generate count flashcard candidates for
// a lesson. Goes through the long-timeout client: generation is slow work.
func (c *Client) GeneratePreview(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
	body := map[string]any{"lessonId": lessonID, "count": count}

	env, err := c.postJSON(ctx, c.genClient, "/ai/preview/flash-card", body)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("genservice: preview generation failed: %s", env.Message)
	}

	payload := domain.RawRecord(env.Payload)
	batch := &domain.PreviewBatch{
		BufferID: payload.String("bufferId", "buffer_id"),
	}

	preview := payload.Map("preview")
	if preview != nil {
		if cards, ok := preview["flashcards"].([]any); ok {
			batch.Flashcards = make([]domain.RawRecord, 0, len(cards))
			for _, card := range cards {
				if cm, ok := card.(map[string]any); ok {
					batch.Flashcards = append(batch.Flashcards, domain.RawRecord(cm))
				}
			}
		}
	}

	c.log.DebugContext(ctx, "generated preview",
		slog.String("lesson_id", lessonID),
		slog.String("buffer_id", batch.BufferID),
		slog.Int("count", len(batch.Flashcards)),
	)

	return batch, nil
}

// GetLesson fetches a lesson record. The lesson may live under several
// payload keys depending on the service revision.
func (c *Client) GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	env, err := c.getJSON(ctx, "/lessons/"+lessonID)
	if err != nil {
		return domain.Lesson{}, err
	}
	if !env.Success {
		return domain.Lesson{}, fmt.Errorf("genservice: get lesson %s: %w", lessonID, domain.ErrNotFound)
	}

	payload := domain.RawRecord(env.Payload)
	rec := payload.Map("lesson", "data")
	if rec == nil {
		rec = payload
	}

	return domain.Lesson{
		ID:          firstNonEmpty(rec.String("_id", "id"), lessonID),
		ModuleID:    rec.String("module_id", "moduleId"),
		Name:        rec.String("title", "name"),
		Description: rec.String("description"),
	}, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
