// Package review implements the flashcard draft review workflow: the draft
// store with normalization and pagination, the review controller with its
// per-lesson request guards, and the media attachment manager.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// draftLister is the slice of the generation client the store needs.
type draftLister interface {
	ListDrafts(ctx context.Context) ([]domain.Draft, error)
}

// Store holds the full set of drafted flashcards for the active lesson.
// It is the only owner of that collection; all mutation goes through its
// methods so pagination windows and status flags stay consistent.
type Store struct {
	log    *slog.Logger
	client draftLister
	now    func() time.Time

	mu       sync.Mutex
	lessonID string
	items    []domain.Flashcard
}

// NewStore creates a draft store backed by the given generation client.
func NewStore(log *slog.Logger, client draftLister) *Store {
	return &Store{
		log:    log.With("service", "review.store"),
		client: client,
		now:    time.Now,
	}
}

// LoadDrafts fetches all drafts, flattens their flashcards into one ordered
// sequence tagged with parent draft metadata, filters to the requested
// lesson, and replaces the store contents with the result. The replacement
// is conditional: if the store was rebound to another lesson while the fetch
// was in flight, the fetched items are discarded instead of committed.
//
// A fetch failure or an empty drafts collection yields an empty list, not an
// error: "no drafts" is a normal, displayable state. Reloading resets every
// item's status to PENDING.
func (s *Store) LoadDrafts(ctx context.Context, lessonID string) []domain.Flashcard {
	drafts, err := s.client.ListDrafts(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "draft listing failed, treating as empty",
			slog.String("lesson_id", lessonID),
			slog.String("error", err.Error()),
		)
		drafts = nil
	}

	now := s.now()
	items := make([]domain.Flashcard, 0)
	orderIndex := 0
	for _, draft := range drafts {
		for _, raw := range draft.Flashcards {
			card := normalize(raw, orderIndex, draft, now)
			orderIndex++
			if card.LessonID != lessonID {
				continue
			}
			items = append(items, card)
		}
	}

	s.mu.Lock()
	if s.lessonID != lessonID {
		bound := s.lessonID
		s.mu.Unlock()
		s.log.DebugContext(ctx, "discarding draft load for rebound lesson",
			slog.String("fetched_for", lessonID),
			slog.String("bound_to", bound),
		)
		return nil
	}
	s.items = items
	s.mu.Unlock()

	s.log.DebugContext(ctx, "loaded drafts",
		slog.String("lesson_id", lessonID),
		slog.Int("count", len(items)),
	)

	return s.Items()
}

// SetPreview replaces the store contents with a freshly generated preview
// batch for the given lesson.
func (s *Store) SetPreview(lessonID string, batch *domain.PreviewBatch) []domain.Flashcard {
	now := s.now()
	meta := domain.Draft{BufferID: batch.BufferID, LessonID: lessonID}

	items := make([]domain.Flashcard, 0, len(batch.Flashcards))
	for i, raw := range batch.Flashcards {
		items = append(items, normalize(raw, i, meta, now))
	}

	s.mu.Lock()
	s.lessonID = lessonID
	s.items = items
	s.mu.Unlock()

	return s.Items()
}

// Reset discards all items and rebinds the store to a lesson.
func (s *Store) Reset(lessonID string) {
	s.mu.Lock()
	s.lessonID = lessonID
	s.items = nil
	s.mu.Unlock()
}

// Items returns a snapshot copy of the full list.
func (s *Store) Items() []domain.Flashcard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Flashcard, len(s.items))
	copy(out, s.items)
	return out
}

// LessonID returns the lesson the store is currently bound to.
func (s *Store) LessonID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessonID
}

// ApproveLocal flips one PENDING item to APPROVED. Sibling items are never
// touched. Returns false when the item is absent or not PENDING.
func (s *Store) ApproveLocal(flashcardID string) bool {
	return s.transition(flashcardID, domain.ReviewStatusApproved)
}

// RejectLocal flips one PENDING item to REJECTED. Rejection is terminal: a
// later approve-all will not resurrect the item.
func (s *Store) RejectLocal(flashcardID string) bool {
	return s.transition(flashcardID, domain.ReviewStatusRejected)
}

func (s *Store) transition(flashcardID string, to domain.ReviewStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != flashcardID {
			continue
		}
		if s.items[i].Status != domain.ReviewStatusPending {
			return false
		}
		s.items[i].Status = to
		s.items[i].UpdatedAt = s.now()
		return true
	}
	return false
}

// ApproveAllLocal promotes every PENDING item to APPROVED. REJECTED items
// are excluded. Returns the number of items promoted.
func (s *Store) ApproveAllLocal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for i := range s.items {
		if s.items[i].Status != domain.ReviewStatusPending {
			continue
		}
		s.items[i].Status = domain.ReviewStatusApproved
		s.items[i].UpdatedAt = now
		n++
	}
	return n
}

// UpdateRaw replaces an item's raw record from a manually edited JSON blob.
// Invalid JSON is reported as an error and the item is left untouched, so
// the caller can keep the edit form open for correction.
func (s *Store) UpdateRaw(flashcardID string, rawJSON []byte) error {
	var rec map[string]any
	if err := json.Unmarshal(rawJSON, &rec); err != nil {
		return domain.NewValidationError("raw", "invalid JSON: "+err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != flashcardID {
			continue
		}
		raw := domain.RawRecord(rec)
		s.items[i].Raw = raw
		s.items[i].Front = raw.String("prompt")
		s.items[i].Back = deriveBack(raw)
		s.items[i].UpdatedAt = s.now()
		return nil
	}
	return fmt.Errorf("flashcard %s: %w", flashcardID, domain.ErrNotFound)
}

// SetRawField writes a single field of an item's raw record (used by media
// attachment to store resolved URLs). Status is never touched.
func (s *Store) SetRawField(flashcardID, field string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != flashcardID {
			continue
		}
		if s.items[i].Raw == nil {
			s.items[i].Raw = domain.RawRecord{}
		}
		s.items[i].Raw.Set(field, value)
		s.items[i].UpdatedAt = s.now()
		return true
	}
	return false
}

// Page is one pagination window over the full drafted list.
type Page struct {
	Visible []domain.Flashcard
	HasMore bool
}

// ApplyPage slices the first displayedCount items from all. Pure and
// side-effect-free: identical inputs always produce identical output.
func ApplyPage(all []domain.Flashcard, displayedCount int) Page {
	if displayedCount < 0 {
		displayedCount = 0
	}
	n := displayedCount
	if n > len(all) {
		n = len(all)
	}
	return Page{
		Visible: all[:n],
		HasMore: len(all) > displayedCount,
	}
}
