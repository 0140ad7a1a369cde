package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

const defaultAuditLimit = 50

// auditReader defines the minimal repository interface needed by AuditHandler.
type auditReader interface {
	ListByLesson(ctx context.Context, lessonID string, limit int) ([]domain.ReviewEvent, error)
	ListRecent(ctx context.Context, limit, offset int) ([]domain.ReviewEvent, error)
	CountByAction(ctx context.Context, lessonID string) (map[domain.ReviewAction]int, error)
}

// AuditHandler serves the review decision history. Only registered when the
// audit trail is configured.
type AuditHandler struct {
	repo auditReader
	log  *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo auditReader, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: logger.With("handler", "audit")}
}

type auditEventResponse struct {
	ID          string    `json:"id"`
	LessonID    string    `json:"lessonId"`
	FlashcardID string    `json:"flashcardId,omitempty"`
	DraftID     string    `json:"draftId,omitempty"`
	BufferID    string    `json:"bufferId,omitempty"`
	Action      string    `json:"action"`
	Succeeded   bool      `json:"succeeded"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Events handles GET /api/audit/events?lessonId=&limit=&offset=.
// With lessonId, returns that lesson's history; without, the newest events
// across all lessons.
func (h *AuditHandler) Events(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	limit := queryInt(r, "limit", defaultAuditLimit)
	offset := queryInt(r, "offset", 0)

	var (
		events []domain.ReviewEvent
		err    error
	)
	if lessonID != "" {
		events, err = h.repo.ListByLesson(r.Context(), lessonID, limit)
	} else {
		events, err = h.repo.ListRecent(r.Context(), limit, offset)
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "list audit events", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]auditEventResponse, len(events))
	for i, e := range events {
		out[i] = auditEventResponse{
			ID:          e.ID.String(),
			LessonID:    e.LessonID,
			FlashcardID: e.FlashcardID,
			DraftID:     e.DraftID,
			BufferID:    e.BufferID,
			Action:      e.Action.String(),
			Succeeded:   e.Succeeded,
			CreatedAt:   e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// Summary handles GET /api/audit/summary?lessonId=.
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	if lessonID == "" {
		writeError(w, http.StatusBadRequest, "lessonId is required")
		return
	}

	counts, err := h.repo.CountByAction(r.Context(), lessonID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "count audit events", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make(map[string]int, len(counts))
	for action, n := range counts {
		out[action.String()] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessonId": lessonID, "counts": out})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
