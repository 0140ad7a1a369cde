package genservice

import (
	"context"
	"fmt"
	"log/slog"
)

// ApproveFlashcard approves a single drafted flashcard server-side.
// All three identifiers are required by the service to resolve the item.
func (c *Client) ApproveFlashcard(ctx context.Context, flashcardID, draftID, lessonID string) error {
	body := map[string]any{
		"flashcardId": flashcardID,
		"draftId":     draftID,
		"lessonId":    lessonID,
	}

	env, err := c.postJSON(ctx, c.readClient, "/ai/approve/flash-card", body)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("genservice: approve flashcard %s: %s", flashcardID, env.Message)
	}

	c.log.DebugContext(ctx, "approved flashcard",
		slog.String("flashcard_id", flashcardID),
		slog.String("draft_id", draftID),
	)

	return nil
}

// ApproveLesson bulk-approves the buffered preview batch for a lesson.
func (c *Client) ApproveLesson(ctx context.Context, bufferID, lessonID string) error {
	body := map[string]any{
		"bufferId": bufferID,
		"lessonId": lessonID,
	}

	env, err := c.postJSON(ctx, c.readClient, "/ai/approve/lesson", body)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("genservice: approve lesson %s: %s", lessonID, env.Message)
	}

	c.log.DebugContext(ctx, "approved lesson batch",
		slog.String("lesson_id", lessonID),
		slog.String("buffer_id", bufferID),
	)

	return nil
}

// RejectFlashcard rejects a single drafted flashcard server-side.
func (c *Client) RejectFlashcard(ctx context.Context, flashcardID string) error {
	body := map[string]any{"flashcardId": flashcardID}

	env, err := c.postJSON(ctx, c.readClient, "/ai/reject/flash-card", body)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("genservice: reject flashcard %s: %s", flashcardID, env.Message)
	}

	return nil
}
