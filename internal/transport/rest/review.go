package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/lingoforge/reviewdesk/internal/domain"
	"github.com/lingoforge/reviewdesk/internal/service/review"
)

// reviewService defines the minimal controller interface needed by ReviewHandler.
type reviewService interface {
	SetLesson(lessonID string)
	ActiveLesson() string
	LoadLesson(ctx context.Context) domain.Lesson
	LoadPreviewFlashcards(ctx context.Context) ([]domain.Flashcard, error)
	GenerateNewBatch(ctx context.Context, count int) ([]domain.Flashcard, error)
	Page() review.Page
	LoadMore() review.Page
	Previewing() bool
	ApproveOne(ctx context.Context, flashcardID, draftID, lessonID string) error
	ApproveAll(ctx context.Context) (int, error)
	RejectOne(ctx context.Context, flashcardID string) bool
}

// rawEditor is the slice of the draft store used for manual raw-JSON edits.
type rawEditor interface {
	UpdateRaw(flashcardID string, rawJSON []byte) error
}

// ReviewHandler serves the review workflow REST endpoints.
type ReviewHandler struct {
	svc   reviewService
	store rawEditor
	log   *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(svc reviewService, store rawEditor, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, store: store, log: logger.With("handler", "review")}
}

type setLessonRequest struct {
	LessonID string `json:"lessonId"`
}

type generateRequest struct {
	Count int `json:"count"`
}

type approveRequest struct {
	DraftID  string `json:"draftId"`
	LessonID string `json:"lessonId"`
}

type lessonResponse struct {
	ID          string `json:"id"`
	ModuleID    string `json:"moduleId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Placeholder bool   `json:"placeholder"`
}

type flashcardResponse struct {
	ID         string           `json:"id"`
	LessonID   string           `json:"lessonId"`
	Front      string           `json:"front"`
	Back       string           `json:"back"`
	Difficulty string           `json:"difficulty"`
	Status     string           `json:"status"`
	BufferID   string           `json:"bufferId,omitempty"`
	DraftID    string           `json:"draftId,omitempty"`
	Raw        domain.RawRecord `json:"raw,omitempty"`
}

type pageResponse struct {
	Flashcards []flashcardResponse `json:"flashcards"`
	HasMore    bool                `json:"hasMore"`
	Previewing bool                `json:"previewing"`
}

// SetLesson handles POST /api/session/lesson.
// Switching the lesson resets guards, pagination, and the draft store.
func (h *ReviewHandler) SetLesson(w http.ResponseWriter, r *http.Request) {
	var req setLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LessonID == "" {
		writeError(w, http.StatusBadRequest, "lessonId is required")
		return
	}

	h.svc.SetLesson(req.LessonID)
	lesson := h.svc.LoadLesson(r.Context())
	writeJSON(w, http.StatusOK, toLessonResponse(lesson))
}

// GetLesson handles GET /api/session/lesson.
func (h *ReviewHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	if h.svc.ActiveLesson() == "" {
		writeError(w, http.StatusNotFound, "no active lesson")
		return
	}
	writeJSON(w, http.StatusOK, toLessonResponse(h.svc.LoadLesson(r.Context())))
}

// LoadFlashcards handles POST /api/flashcards/load.
// Loads the drafted flashcards for the active lesson. One-shot per lesson:
// repeated calls answer from the store without another upstream request.
func (h *ReviewHandler) LoadFlashcards(w http.ResponseWriter, r *http.Request) {
	if h.svc.ActiveLesson() == "" {
		writeError(w, http.StatusConflict, "no active lesson")
		return
	}

	_, err := h.svc.LoadPreviewFlashcards(r.Context())
	if err != nil && !errors.Is(err, domain.ErrRequestInFlight) {
		h.handleError(w, r, err)
		return
	}

	h.writePage(w)
}

// Generate handles POST /api/flashcards/generate.
func (h *ReviewHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.svc.ActiveLesson() == "" {
		writeError(w, http.StatusConflict, "no active lesson")
		return
	}

	var req generateRequest
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if _, err := h.svc.GenerateNewBatch(r.Context(), req.Count); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writePage(w)
}

// ListFlashcards handles GET /api/flashcards.
func (h *ReviewHandler) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	h.writePage(w)
}

// LoadMore handles POST /api/flashcards/more.
func (h *ReviewHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	page := h.svc.LoadMore()
	writeJSON(w, http.StatusOK, toPageResponse(page, h.svc.Previewing()))
}

// Approve handles POST /api/flashcards/{id}/approve.
// Requires draftId and lessonId in the body; a partial identifier set is a
// no-op rejected before any upstream call.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	flashcardID := r.PathValue("id")

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.ApproveOne(r.Context(), flashcardID, req.DraftID, req.LessonID); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// ApproveAll handles POST /api/flashcards/approve-all.
func (h *ReviewHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ApproveAll(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "approved", "count": n})
}

// Reject handles POST /api/flashcards/{id}/reject.
func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	flashcardID := r.PathValue("id")
	if !h.svc.RejectOne(r.Context(), flashcardID) {
		writeError(w, http.StatusNotFound, "flashcard not found or already decided")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// UpdateRaw handles PUT /api/flashcards/{id}/raw.
// The body is the full replacement raw record. Malformed JSON leaves the
// flashcard untouched so the edit form can stay open for correction.
func (h *ReviewHandler) UpdateRaw(w http.ResponseWriter, r *http.Request) {
	flashcardID := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	if err := h.store.UpdateRaw(flashcardID, body); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writePage(w)
}

func (h *ReviewHandler) writePage(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, toPageResponse(h.svc.Page(), h.svc.Previewing()))
}

func (h *ReviewHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMissingIdentifier):
		writeError(w, http.StatusBadRequest, "flashcardId, draftId and lessonId are all required")
	case errors.Is(err, domain.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "request already dispatched for this lesson")
	case errors.Is(err, domain.ErrNoActiveBuffer):
		writeError(w, http.StatusConflict, "no preview batch to approve")
	case errors.Is(err, domain.ErrStaleLesson):
		writeError(w, http.StatusConflict, "lesson changed while the request was in flight")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "generation service request failed")
	}
}

func toLessonResponse(lesson domain.Lesson) lessonResponse {
	return lessonResponse{
		ID:          lesson.ID,
		ModuleID:    lesson.ModuleID,
		Name:        lesson.Name,
		Description: lesson.Description,
		Placeholder: lesson.Placeholder,
	}
}

func toFlashcardResponse(card domain.Flashcard) flashcardResponse {
	return flashcardResponse{
		ID:         card.ID,
		LessonID:   card.LessonID,
		Front:      card.Front,
		Back:       card.Back,
		Difficulty: card.Difficulty.String(),
		Status:     card.Status.String(),
		BufferID:   card.BufferID,
		DraftID:    card.DraftID,
		Raw:        card.Raw,
	}
}

func toPageResponse(page review.Page, previewing bool) pageResponse {
	cards := make([]flashcardResponse, len(page.Visible))
	for i, card := range page.Visible {
		cards[i] = toFlashcardResponse(card)
	}
	return pageResponse{
		Flashcards: cards,
		HasMore:    page.HasMore,
		Previewing: previewing,
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
