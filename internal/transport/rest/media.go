package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
	"github.com/lingoforge/reviewdesk/internal/service/review"
)

// maxUploadBytes caps in-memory buffering of multipart uploads.
const maxUploadBytes = 64 << 20

// mediaService defines the minimal manager interface needed by MediaHandler.
type mediaService interface {
	Upload(ctx context.Context, draftID, flashcardID string, mediaType domain.MediaType, filename string, file io.Reader) (review.UploadOutcome, error)
	UploadByPrompt(ctx context.Context, draftID, flashcardID, prompt string, mediaType domain.MediaType) (review.UploadOutcome, error)
	Tasks() []domain.UploadTask
}

// MediaHandler serves media attachment endpoints.
type MediaHandler struct {
	svc mediaService
	log *slog.Logger
}

// NewMediaHandler creates a MediaHandler.
func NewMediaHandler(svc mediaService, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{svc: svc, log: logger.With("handler", "media")}
}

type promptUploadRequest struct {
	Prompt    string `json:"prompt"`
	MediaType string `json:"mediaType"`
}

type uploadResponse struct {
	DraftID     string `json:"draftId"`
	FlashcardID string `json:"flashcardId"`
	URL         string `json:"url"`
	Resolved    bool   `json:"resolved"`
	Message     string `json:"message,omitempty"`
}

type uploadTaskResponse struct {
	DraftID         string    `json:"draftId"`
	FlashcardID     string    `json:"flashcardId"`
	ProgressPercent int       `json:"progressPercent"`
	StartedAt       time.Time `json:"startedAt"`
}

// Upload handles PUT /api/drafts/{draftId}/flashcards/{flashcardId}/media.
// A multipart body is a file upload; a JSON body is prompt-driven generation.
// Both always answer with an outcome, even when URL extraction failed.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	draftID := r.PathValue("draftId")
	flashcardID := r.PathValue("flashcardId")

	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid content type")
		return
	}

	switch contentType {
	case "multipart/form-data":
		h.uploadFile(w, r, draftID, flashcardID)
	case "application/json":
		h.uploadByPrompt(w, r, draftID, flashcardID)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "expected multipart/form-data or application/json")
	}
}

func (h *MediaHandler) uploadFile(w http.ResponseWriter, r *http.Request, draftID, flashcardID string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	mediaType := domain.MediaType(r.FormValue("mediaType"))
	if mediaType == "" {
		mediaType = domain.MediaTypeImage
	}

	outcome, err := h.svc.Upload(r.Context(), draftID, flashcardID, mediaType, header.Filename, file)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUploadResponse(outcome))
}

func (h *MediaHandler) uploadByPrompt(w http.ResponseWriter, r *http.Request, draftID, flashcardID string) {
	var req promptUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mediaType := domain.MediaType(req.MediaType)
	if mediaType == "" {
		mediaType = domain.MediaTypeImage
	}

	outcome, err := h.svc.UploadByPrompt(r.Context(), draftID, flashcardID, req.Prompt, mediaType)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUploadResponse(outcome))
}

// Tasks handles GET /api/uploads. Returns the uploads currently in flight.
func (h *MediaHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.svc.Tasks()
	out := make([]uploadTaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = uploadTaskResponse{
			DraftID:         t.DraftID,
			FlashcardID:     t.FlashcardID,
			ProgressPercent: t.ProgressPercent,
			StartedAt:       t.StartedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": out})
}

func (h *MediaHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func toUploadResponse(outcome review.UploadOutcome) uploadResponse {
	return uploadResponse{
		DraftID:     outcome.DraftID,
		FlashcardID: outcome.FlashcardID,
		URL:         outcome.URL,
		Resolved:    outcome.Resolved,
		Message:     outcome.Message,
	}
}
