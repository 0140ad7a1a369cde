package review

import (
	"context"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// mediaUploader is the slice of the generation client the manager needs.
type mediaUploader interface {
	UploadMedia(ctx context.Context, draftID, flashcardID, filename string, file io.Reader, onProgress func(percent int)) (*domain.MediaUploadResult, error)
	UploadMediaByPrompt(ctx context.Context, draftID, flashcardID, prompt string, mediaType domain.MediaType) (*domain.MediaUploadResult, error)
}

// UploadOutcome is the unconditional result of a media upload. Resolved is
// false when no usable URL could be extracted, in which case URL holds the
// MediaURLNotFound sentinel so callers can still render a result panel.
type UploadOutcome struct {
	DraftID     string
	FlashcardID string
	URL         string
	Resolved    bool
	Message     string
}

// MediaManager attaches image, audio, and video assets to drafted
// flashcards, tracks per-upload progress, and writes the resulting URL back
// into the flashcard's raw content record.
type MediaManager struct {
	log      *slog.Logger
	client   mediaUploader
	store    *Store
	resolver *URLResolver

	mu    sync.Mutex
	tasks map[string]domain.UploadTask
}

// NewMediaManager creates a media manager over the given store and client.
func NewMediaManager(log *slog.Logger, client mediaUploader, store *Store, resolver *URLResolver) *MediaManager {
	return &MediaManager{
		log:      log.With("service", "review.media"),
		client:   client,
		store:    store,
		resolver: resolver,
		tasks:    make(map[string]domain.UploadTask),
	}
}

// Upload sends a file as a multipart upload and returns the extracted asset
// URL. Upload failures and extraction failures both produce an outcome, not
// a bare error: the caller always gets something to present.
func (m *MediaManager) Upload(ctx context.Context, draftID, flashcardID string, mediaType domain.MediaType, filename string, file io.Reader) (UploadOutcome, error) {
	if draftID == "" || flashcardID == "" || file == nil {
		return UploadOutcome{}, domain.NewValidationError("upload", "draftId, flashcardId and file are required")
	}
	if !mediaType.IsValid() {
		return UploadOutcome{}, domain.NewValidationError("mediaType", "must be image, audio or video")
	}

	key := m.startTask(draftID, flashcardID)
	defer m.finishTask(key)

	result, err := m.client.UploadMedia(ctx, draftID, flashcardID, filename, file, func(percent int) {
		m.setProgress(key, percent)
	})
	if err != nil {
		m.log.ErrorContext(ctx, "media upload failed",
			slog.String("draft_id", draftID),
			slog.String("flashcard_id", flashcardID),
			slog.String("error", err.Error()),
		)
		return m.failed(draftID, flashcardID, err.Error()), nil
	}

	return m.resolveOutcome(ctx, draftID, flashcardID, mediaType, path.Base(filename), result), nil
}

// UploadByPrompt asks the generation service to produce the asset from a
// text prompt. Same outcome contract as Upload; no byte progress.
func (m *MediaManager) UploadByPrompt(ctx context.Context, draftID, flashcardID, prompt string, mediaType domain.MediaType) (UploadOutcome, error) {
	if draftID == "" || flashcardID == "" || prompt == "" {
		return UploadOutcome{}, domain.NewValidationError("upload", "draftId, flashcardId and prompt are required")
	}
	if !mediaType.IsValid() {
		return UploadOutcome{}, domain.NewValidationError("mediaType", "must be image, audio or video")
	}

	result, err := m.client.UploadMediaByPrompt(ctx, draftID, flashcardID, prompt, mediaType)
	if err != nil {
		m.log.ErrorContext(ctx, "prompt media upload failed",
			slog.String("draft_id", draftID),
			slog.String("flashcard_id", flashcardID),
			slog.String("error", err.Error()),
		)
		return m.failed(draftID, flashcardID, err.Error()), nil
	}

	return m.resolveOutcome(ctx, draftID, flashcardID, mediaType, "", result), nil
}

// Tasks returns a snapshot of the uploads currently in flight.
func (m *MediaManager) Tasks() []domain.UploadTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UploadTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}

// resolveOutcome extracts the asset URL from the upload response and, when
// found, writes it into the flashcard's raw record at the field matching the
// media type. Review status is never touched here.
func (m *MediaManager) resolveOutcome(ctx context.Context, draftID, flashcardID string, mediaType domain.MediaType, filename string, result *domain.MediaUploadResult) UploadOutcome {
	resolvedURL, ok := m.resolver.Resolve(result.Body, mediaType, filename)
	if !ok {
		m.log.WarnContext(ctx, "no usable url in upload response",
			slog.String("draft_id", draftID),
			slog.String("flashcard_id", flashcardID),
		)
		return m.failed(draftID, flashcardID, "upload succeeded but no asset URL was found in the response")
	}

	if !m.store.SetRawField(flashcardID, mediaType.ContentField(), resolvedURL) {
		m.log.WarnContext(ctx, "flashcard not in store, url not written back",
			slog.String("flashcard_id", flashcardID))
	}

	return UploadOutcome{
		DraftID:     draftID,
		FlashcardID: flashcardID,
		URL:         resolvedURL,
		Resolved:    true,
		Message:     result.Message,
	}
}

func (m *MediaManager) failed(draftID, flashcardID, message string) UploadOutcome {
	return UploadOutcome{
		DraftID:     draftID,
		FlashcardID: flashcardID,
		URL:         MediaURLNotFound,
		Resolved:    false,
		Message:     message,
	}
}

func (m *MediaManager) startTask(draftID, flashcardID string) string {
	key := draftID + ":" + flashcardID
	m.mu.Lock()
	m.tasks[key] = domain.UploadTask{
		DraftID:         draftID,
		FlashcardID:     flashcardID,
		ProgressPercent: 0,
		StartedAt:       time.Now(),
	}
	m.mu.Unlock()
	return key
}

func (m *MediaManager) setProgress(key string, percent int) {
	m.mu.Lock()
	if t, ok := m.tasks[key]; ok && percent > t.ProgressPercent {
		t.ProgressPercent = percent
		m.tasks[key] = t
	}
	m.mu.Unlock()
}

func (m *MediaManager) finishTask(key string) {
	m.mu.Lock()
	delete(m.tasks, key)
	m.mu.Unlock()
}
