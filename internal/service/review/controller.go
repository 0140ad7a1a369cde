package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// generationAPI is the slice of the generation client the controller needs.
type generationAPI interface {
	GeneratePreview(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error)
	ApproveFlashcard(ctx context.Context, flashcardID, draftID, lessonID string) error
	ApproveLesson(ctx context.Context, bufferID, lessonID string) error
	GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error)
}

// AuditRecorder persists review decisions. Implementations must tolerate
// being called concurrently. A nil recorder disables auditing.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.ReviewEvent) error
}

// latches are the one-shot per-lesson request guards. Once a request kind is
// marked in-flight for a lesson it stays marked until the active lesson
// changes; completion does not release it. This is a latch, not a lock.
type latches struct {
	previewRequested  bool
	generateRequested bool
}

// Controller orchestrates the review session for the active lesson:
// preview loading, pagination, approve/reject decisions, and the guards
// preventing duplicate concurrent requests.
type Controller struct {
	log    *slog.Logger
	client generationAPI
	store  *Store
	audit  AuditRecorder

	pageIncrement    int
	defaultBatchSize int

	mu             sync.Mutex
	activeLesson   string
	lesson         domain.Lesson
	guards         map[string]*latches
	bufferID       string
	previewing     bool
	displayedCount int
}

// NewController creates a review controller. audit may be nil.
func NewController(log *slog.Logger, client generationAPI, store *Store, audit AuditRecorder, pageIncrement, defaultBatchSize int) *Controller {
	if pageIncrement <= 0 {
		pageIncrement = 20
	}
	if defaultBatchSize <= 0 {
		defaultBatchSize = 20
	}
	return &Controller{
		log:              log.With("service", "review.controller"),
		client:           client,
		store:            store,
		audit:            audit,
		pageIncrement:    pageIncrement,
		defaultBatchSize: defaultBatchSize,
		guards:           make(map[string]*latches),
	}
}

// SetLesson switches the active lesson context. Both request latches reset,
// the pagination window rewinds, any preview session ends, and the store is
// cleared. Results of requests dispatched under the previous lesson will be
// discarded when they eventually arrive.
func (c *Controller) SetLesson(lessonID string) {
	c.mu.Lock()
	c.activeLesson = lessonID
	c.lesson = domain.Lesson{}
	c.guards = make(map[string]*latches)
	c.bufferID = ""
	c.previewing = false
	c.displayedCount = c.pageIncrement
	c.mu.Unlock()

	c.store.Reset(lessonID)
}

// ActiveLesson returns the current lesson id.
func (c *Controller) ActiveLesson() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLesson
}

// LoadLesson fetches the active lesson's record. A fetch failure substitutes
// a minimal placeholder so the rest of the workflow remains usable.
func (c *Controller) LoadLesson(ctx context.Context) domain.Lesson {
	c.mu.Lock()
	lessonID := c.activeLesson
	c.mu.Unlock()

	lesson, err := c.client.GetLesson(ctx, lessonID)
	if err != nil {
		c.log.WarnContext(ctx, "lesson load failed, substituting placeholder",
			slog.String("lesson_id", lessonID),
			slog.String("error", err.Error()),
		)
		lesson = domain.PlaceholderLesson(lessonID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeLesson != lessonID {
		// Lesson changed while the fetch was in flight; drop the result.
		return domain.PlaceholderLesson(c.activeLesson)
	}
	c.lesson = lesson
	return lesson
}

// guardsFor returns the latch record for a lesson, creating it on first use.
// Caller must hold c.mu.
func (c *Controller) guardsFor(lessonID string) *latches {
	g, ok := c.guards[lessonID]
	if !ok {
		g = &latches{}
		c.guards[lessonID] = g
	}
	return g
}

// LoadPreviewFlashcards loads the drafted flashcards for the active lesson.
// At most one load is ever dispatched per lesson context: a second call
// no-ops with ErrRequestInFlight until the lesson changes.
func (c *Controller) LoadPreviewFlashcards(ctx context.Context) ([]domain.Flashcard, error) {
	c.mu.Lock()
	lessonID := c.activeLesson
	g := c.guardsFor(lessonID)
	if g.previewRequested {
		c.mu.Unlock()
		c.log.Debug("preview load already requested", slog.String("lesson_id", lessonID))
		return nil, domain.ErrRequestInFlight
	}
	g.previewRequested = true
	c.mu.Unlock()

	items := c.store.LoadDrafts(ctx, lessonID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeLesson != lessonID {
		c.log.Debug("discarding stale preview load", slog.String("lesson_id", lessonID))
		return nil, domain.ErrStaleLesson
	}
	c.displayedCount = c.pageIncrement
	return items, nil
}

// GenerateNewBatch requests a fresh preview batch from the generation
// service. Guarded by the per-lesson generate latch; establishes the buffer
// id consumed by a later ApproveAll.
func (c *Controller) GenerateNewBatch(ctx context.Context, count int) ([]domain.Flashcard, error) {
	if count <= 0 {
		count = c.defaultBatchSize
	}

	c.mu.Lock()
	lessonID := c.activeLesson
	g := c.guardsFor(lessonID)
	if g.generateRequested {
		c.mu.Unlock()
		c.log.Debug("batch generation already requested", slog.String("lesson_id", lessonID))
		return nil, domain.ErrRequestInFlight
	}
	g.generateRequested = true
	c.mu.Unlock()

	batch, err := c.client.GeneratePreview(ctx, lessonID, count)
	if err != nil {
		c.log.ErrorContext(ctx, "batch generation failed",
			slog.String("lesson_id", lessonID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.mu.Lock()
	if c.activeLesson != lessonID {
		c.mu.Unlock()
		c.log.Debug("discarding stale generation result", slog.String("lesson_id", lessonID))
		return nil, domain.ErrStaleLesson
	}
	c.bufferID = batch.BufferID
	c.previewing = true
	c.displayedCount = c.pageIncrement
	c.mu.Unlock()

	return c.store.SetPreview(lessonID, batch), nil
}

// Page returns the currently visible window plus whether more items remain.
func (c *Controller) Page() Page {
	c.mu.Lock()
	n := c.displayedCount
	c.mu.Unlock()
	return ApplyPage(c.store.Items(), n)
}

// LoadMore widens the visible window by the configured increment.
func (c *Controller) LoadMore() Page {
	c.mu.Lock()
	c.displayedCount += c.pageIncrement
	n := c.displayedCount
	c.mu.Unlock()
	return ApplyPage(c.store.Items(), n)
}

// Previewing reports whether an unapproved preview session is open.
func (c *Controller) Previewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewing
}

// BufferID returns the correlation id of the open preview session.
func (c *Controller) BufferID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bufferID
}

// ApproveOne approves one drafted flashcard server-side. All three
// identifiers are required: a partial set cannot be resolved by the service,
// so the call logs a diagnostic and no-ops without touching any state.
func (c *Controller) ApproveOne(ctx context.Context, flashcardID, draftID, lessonID string) error {
	if flashcardID == "" || draftID == "" || lessonID == "" {
		c.log.WarnContext(ctx, "approve skipped: missing identifier",
			slog.String("flashcard_id", flashcardID),
			slog.String("draft_id", draftID),
			slog.String("lesson_id", lessonID),
		)
		return domain.ErrMissingIdentifier
	}

	err := c.client.ApproveFlashcard(ctx, flashcardID, draftID, lessonID)
	c.record(ctx, domain.ReviewEvent{
		LessonID:    lessonID,
		FlashcardID: flashcardID,
		DraftID:     draftID,
		Action:      domain.ReviewActionApprove,
		Succeeded:   err == nil,
	})
	if err != nil {
		return err
	}

	c.store.ApproveLocal(flashcardID)
	return nil
}

// ApproveAll bulk-approves the open preview session. Requires the buffer id
// established by the most recent GenerateNewBatch. On success every PENDING
// item is promoted (REJECTED items stay rejected) and the session ends. If
// the active lesson changed while the call was in flight, the completion is
// discarded and no local item is touched.
func (c *Controller) ApproveAll(ctx context.Context) (int, error) {
	c.mu.Lock()
	bufferID := c.bufferID
	lessonID := c.activeLesson
	c.mu.Unlock()

	if bufferID == "" {
		c.log.WarnContext(ctx, "approve all skipped: no active buffer",
			slog.String("lesson_id", lessonID))
		return 0, domain.ErrNoActiveBuffer
	}

	err := c.client.ApproveLesson(ctx, bufferID, lessonID)
	c.record(ctx, domain.ReviewEvent{
		LessonID:  lessonID,
		BufferID:  bufferID,
		Action:    domain.ReviewActionApproveAll,
		Succeeded: err == nil,
	})
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if c.activeLesson != lessonID {
		c.mu.Unlock()
		c.log.Debug("discarding stale approve-all result", slog.String("lesson_id", lessonID))
		return 0, domain.ErrStaleLesson
	}
	c.bufferID = ""
	c.previewing = false
	c.mu.Unlock()

	return c.store.ApproveAllLocal(), nil
}

// RejectOne rejects one item locally. Terminal: a later ApproveAll leaves
// the item rejected.
func (c *Controller) RejectOne(ctx context.Context, flashcardID string) bool {
	ok := c.store.RejectLocal(flashcardID)
	if ok {
		c.record(ctx, domain.ReviewEvent{
			LessonID:    c.ActiveLesson(),
			FlashcardID: flashcardID,
			Action:      domain.ReviewActionReject,
			Succeeded:   true,
		})
	}
	return ok
}

// record writes an audit event when a recorder is configured. Audit failures
// are logged, never propagated: the review action itself already succeeded
// or failed on its own terms.
func (c *Controller) record(ctx context.Context, event domain.ReviewEvent) {
	if c.audit == nil {
		return
	}
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	if err := c.audit.Record(ctx, event); err != nil {
		c.log.ErrorContext(ctx, "audit record failed",
			slog.String("action", event.Action.String()),
			slog.String("error", err.Error()),
		)
	}
}
