package review

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// mockGenAPI serves both the store's lister interface and the controller's
// generation interface so one instance can back a full controller.
type mockGenAPI struct {
	mu sync.Mutex

	listFn     func(ctx context.Context) ([]domain.Draft, error)
	generateFn func(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error)
	approveFn  func(ctx context.Context, flashcardID, draftID, lessonID string) error
	approveAll func(ctx context.Context, bufferID, lessonID string) error
	lessonFn   func(ctx context.Context, lessonID string) (domain.Lesson, error)

	listCalls       int
	generateCalls   int
	approveCalls    int
	approveAllCalls int
}

func (m *mockGenAPI) ListDrafts(ctx context.Context) ([]domain.Draft, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *mockGenAPI) GeneratePreview(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
	m.mu.Lock()
	m.generateCalls++
	m.mu.Unlock()
	if m.generateFn == nil {
		return &domain.PreviewBatch{BufferID: "b1"}, nil
	}
	return m.generateFn(ctx, lessonID, count)
}

func (m *mockGenAPI) ApproveFlashcard(ctx context.Context, flashcardID, draftID, lessonID string) error {
	m.mu.Lock()
	m.approveCalls++
	m.mu.Unlock()
	if m.approveFn == nil {
		return nil
	}
	return m.approveFn(ctx, flashcardID, draftID, lessonID)
}

func (m *mockGenAPI) ApproveLesson(ctx context.Context, bufferID, lessonID string) error {
	m.mu.Lock()
	m.approveAllCalls++
	m.mu.Unlock()
	if m.approveAll == nil {
		return nil
	}
	return m.approveAll(ctx, bufferID, lessonID)
}

func (m *mockGenAPI) GetLesson(ctx context.Context, lessonID string) (domain.Lesson, error) {
	if m.lessonFn == nil {
		return domain.Lesson{ID: lessonID}, nil
	}
	return m.lessonFn(ctx, lessonID)
}

func newTestController(api *mockGenAPI) (*Controller, *Store) {
	store := NewStore(testLogger(), api)
	ctrl := NewController(testLogger(), api, store, nil, 20, 20)
	return ctrl, store
}

func singleDraft(lessonID string, ids ...string) []domain.Draft {
	records := make([]domain.RawRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, domain.RawRecord{"_id": id, "prompt": "p-" + id})
	}
	return []domain.Draft{{DraftID: "d1", BufferID: "b1", LessonID: lessonID, Flashcards: records}}
}

func TestController_LoadPreviewFlashcards_SingleDispatch(t *testing.T) {
	api := &mockGenAPI{
		listFn: func(ctx context.Context) ([]domain.Draft, error) {
			return singleDraft("L1", "fc-1"), nil
		},
	}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")

	items, err := ctrl.LoadPreviewFlashcards(context.Background())
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	_, err = ctrl.LoadPreviewFlashcards(context.Background())
	if !errors.Is(err, domain.ErrRequestInFlight) {
		t.Fatalf("second load error = %v, want ErrRequestInFlight", err)
	}
	if api.listCalls != 1 {
		t.Errorf("network calls = %d, want exactly 1", api.listCalls)
	}
}

func TestController_SetLesson_ResetsLatches(t *testing.T) {
	api := &mockGenAPI{}
	ctrl, _ := newTestController(api)

	ctrl.SetLesson("L1")
	if _, err := ctrl.LoadPreviewFlashcards(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}

	ctrl.SetLesson("L2")
	if _, err := ctrl.LoadPreviewFlashcards(context.Background()); err != nil {
		t.Fatalf("load after lesson switch: %v", err)
	}
	if api.listCalls != 2 {
		t.Errorf("network calls = %d, want 2", api.listCalls)
	}
}

func TestController_GenerateNewBatch(t *testing.T) {
	api := &mockGenAPI{
		generateFn: func(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
			if lessonID != "L1" {
				t.Errorf("lessonID = %q, want L1", lessonID)
			}
			if count != 20 {
				t.Errorf("count = %d, want default 20", count)
			}
			return &domain.PreviewBatch{
				BufferID:   "buf-9",
				Flashcards: []domain.RawRecord{{"_id": "fc-1", "prompt": "cat"}},
			}, nil
		},
	}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")

	items, err := ctrl.GenerateNewBatch(context.Background(), 0)
	if err != nil {
		t.Fatalf("GenerateNewBatch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !ctrl.Previewing() {
		t.Error("controller should be in preview mode")
	}
	if ctrl.BufferID() != "buf-9" {
		t.Errorf("BufferID = %q, want buf-9", ctrl.BufferID())
	}

	if _, err := ctrl.GenerateNewBatch(context.Background(), 0); !errors.Is(err, domain.ErrRequestInFlight) {
		t.Fatalf("second generate error = %v, want ErrRequestInFlight", err)
	}
	if api.generateCalls != 1 {
		t.Errorf("generate calls = %d, want exactly 1", api.generateCalls)
	}
}

func TestController_GenerateNewBatch_StaleLessonDiscarded(t *testing.T) {
	var ctrl *Controller
	api := &mockGenAPI{}
	api.generateFn = func(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
		// The user switches lessons while generation is in flight.
		ctrl.SetLesson("L2")
		return &domain.PreviewBatch{
			BufferID:   "buf-stale",
			Flashcards: []domain.RawRecord{{"_id": "fc-1", "prompt": "cat"}},
		}, nil
	}
	ctrl, store := newTestController(api)
	ctrl.SetLesson("L1")

	_, err := ctrl.GenerateNewBatch(context.Background(), 0)
	if !errors.Is(err, domain.ErrStaleLesson) {
		t.Fatalf("error = %v, want ErrStaleLesson", err)
	}
	if ctrl.BufferID() != "" {
		t.Errorf("stale buffer id %q must not be kept", ctrl.BufferID())
	}
	if len(store.Items()) != 0 {
		t.Errorf("stale items must not land in the store, got %d", len(store.Items()))
	}
}

func TestController_LoadPreviewFlashcards_StaleLessonDiscarded(t *testing.T) {
	var ctrl *Controller
	api := &mockGenAPI{}
	api.listFn = func(ctx context.Context) ([]domain.Draft, error) {
		// The user switches lessons while the draft listing is in flight.
		ctrl.SetLesson("L2")
		return singleDraft("L1", "fc-1", "fc-2"), nil
	}
	ctrl, store := newTestController(api)
	ctrl.SetLesson("L1")

	_, err := ctrl.LoadPreviewFlashcards(context.Background())
	if !errors.Is(err, domain.ErrStaleLesson) {
		t.Fatalf("error = %v, want ErrStaleLesson", err)
	}
	if got := store.LessonID(); got != "L2" {
		t.Errorf("store lesson = %q after switch, want L2", got)
	}
	if n := len(store.Items()); n != 0 {
		t.Errorf("stale items landed in the store: %d visible under L2", n)
	}
	if page := ctrl.Page(); len(page.Visible) != 0 {
		t.Errorf("Page() shows %d stale cards under L2, want 0", len(page.Visible))
	}
}

func TestController_ApproveOne_MissingIdentifierNoOps(t *testing.T) {
	api := &mockGenAPI{}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")

	err := ctrl.ApproveOne(context.Background(), "fc-1", "", "L1")
	if !errors.Is(err, domain.ErrMissingIdentifier) {
		t.Fatalf("error = %v, want ErrMissingIdentifier", err)
	}
	if api.approveCalls != 0 {
		t.Errorf("approve calls = %d, want 0 (no network on missing ids)", api.approveCalls)
	}
}

func TestController_ApproveOne_ConfirmsBeforeFlip(t *testing.T) {
	api := &mockGenAPI{
		listFn: func(ctx context.Context) ([]domain.Draft, error) {
			return singleDraft("L1", "fc-1"), nil
		},
	}
	ctrl, store := newTestController(api)
	ctrl.SetLesson("L1")
	ctrl.LoadPreviewFlashcards(context.Background())

	api.approveFn = func(ctx context.Context, flashcardID, draftID, lessonID string) error {
		return errors.New("boom")
	}
	if err := ctrl.ApproveOne(context.Background(), "fc-1", "d1", "L1"); err == nil {
		t.Fatal("expected the server error to propagate")
	}
	if got := statusOf(t, store, "fc-1"); got != domain.ReviewStatusPending {
		t.Errorf("status = %q after failed approve, want PENDING", got)
	}

	api.approveFn = nil
	if err := ctrl.ApproveOne(context.Background(), "fc-1", "d1", "L1"); err != nil {
		t.Fatalf("ApproveOne() error = %v", err)
	}
	if got := statusOf(t, store, "fc-1"); got != domain.ReviewStatusApproved {
		t.Errorf("status = %q after confirmed approve, want APPROVED", got)
	}
}

func TestController_ApproveAll(t *testing.T) {
	api := &mockGenAPI{
		generateFn: func(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
			return &domain.PreviewBatch{
				BufferID: "buf-1",
				Flashcards: []domain.RawRecord{
					{"_id": "fc-1", "prompt": "a"},
					{"_id": "fc-2", "prompt": "b"},
					{"_id": "fc-3", "prompt": "c"},
				},
			}, nil
		},
		approveAll: func(ctx context.Context, bufferID, lessonID string) error {
			if bufferID != "buf-1" || lessonID != "L1" {
				t.Errorf("got buffer %q lesson %q", bufferID, lessonID)
			}
			return nil
		},
	}
	ctrl, store := newTestController(api)
	ctrl.SetLesson("L1")
	if _, err := ctrl.GenerateNewBatch(context.Background(), 3); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ctrl.RejectOne(context.Background(), "fc-2")

	n, err := ctrl.ApproveAll(context.Background())
	if err != nil {
		t.Fatalf("ApproveAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("promoted = %d, want 2", n)
	}
	if got := statusOf(t, store, "fc-2"); got != domain.ReviewStatusRejected {
		t.Errorf("rejected item status = %q, want REJECTED", got)
	}
	if ctrl.Previewing() {
		t.Error("preview session should be closed after approve all")
	}
	if ctrl.BufferID() != "" {
		t.Errorf("buffer id should be cleared, got %q", ctrl.BufferID())
	}
}

func TestController_ApproveAll_NoBuffer(t *testing.T) {
	api := &mockGenAPI{}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")

	_, err := ctrl.ApproveAll(context.Background())
	if !errors.Is(err, domain.ErrNoActiveBuffer) {
		t.Fatalf("error = %v, want ErrNoActiveBuffer", err)
	}
	if api.approveAllCalls != 0 {
		t.Errorf("approve-all calls = %d, want 0", api.approveAllCalls)
	}
}

func TestController_ApproveAll_StaleLessonDiscarded(t *testing.T) {
	var (
		ctrl  *Controller
		store *Store
	)
	api := &mockGenAPI{
		generateFn: func(ctx context.Context, lessonID string, count int) (*domain.PreviewBatch, error) {
			return &domain.PreviewBatch{
				BufferID:   "buf-1",
				Flashcards: []domain.RawRecord{{"_id": "fc-1", "prompt": "a"}},
			}, nil
		},
	}
	api.approveAll = func(ctx context.Context, bufferID, lessonID string) error {
		// The user switches lessons and opens a new preview while the bulk
		// approve is in flight.
		ctrl.SetLesson("L2")
		store.SetPreview("L2", &domain.PreviewBatch{
			BufferID:   "buf-2",
			Flashcards: []domain.RawRecord{{"_id": "fc-9", "prompt": "z"}},
		})
		return nil
	}
	ctrl, store = newTestController(api)
	ctrl.SetLesson("L1")
	if _, err := ctrl.GenerateNewBatch(context.Background(), 1); err != nil {
		t.Fatalf("generate: %v", err)
	}

	n, err := ctrl.ApproveAll(context.Background())
	if !errors.Is(err, domain.ErrStaleLesson) {
		t.Fatalf("error = %v, want ErrStaleLesson", err)
	}
	if n != 0 {
		t.Errorf("promoted = %d, want 0", n)
	}
	if got := statusOf(t, store, "fc-9"); got != domain.ReviewStatusPending {
		t.Errorf("L2 item status = %q after stale approve-all, want PENDING", got)
	}
}

func TestController_LoadLesson_PlaceholderOnFailure(t *testing.T) {
	api := &mockGenAPI{
		lessonFn: func(ctx context.Context, lessonID string) (domain.Lesson, error) {
			return domain.Lesson{}, errors.New("upstream down")
		},
	}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")

	lesson := ctrl.LoadLesson(context.Background())
	if !lesson.Placeholder {
		t.Fatal("expected a placeholder lesson")
	}
	if lesson.ID != "L1" {
		t.Errorf("placeholder id = %q, want L1", lesson.ID)
	}
}

func TestController_Pagination(t *testing.T) {
	ids := make([]string, 45)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	api := &mockGenAPI{
		listFn: func(ctx context.Context) ([]domain.Draft, error) {
			return singleDraft("L1", ids...), nil
		},
	}
	ctrl, _ := newTestController(api)
	ctrl.SetLesson("L1")
	if _, err := ctrl.LoadPreviewFlashcards(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	page := ctrl.Page()
	if len(page.Visible) != 20 || !page.HasMore {
		t.Fatalf("initial page: visible=%d hasMore=%v, want 20/true", len(page.Visible), page.HasMore)
	}

	page = ctrl.LoadMore()
	if len(page.Visible) != 40 || !page.HasMore {
		t.Fatalf("after one load more: visible=%d hasMore=%v, want 40/true", len(page.Visible), page.HasMore)
	}

	page = ctrl.LoadMore()
	if len(page.Visible) != 45 || page.HasMore {
		t.Fatalf("after two load mores: visible=%d hasMore=%v, want 45/false", len(page.Visible), page.HasMore)
	}
}
