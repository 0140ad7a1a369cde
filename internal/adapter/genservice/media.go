package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// UploadMedia uploads a file as the media asset of one flashcard inside a
// draft via multipart PUT. onProgress, when non-nil, receives monotonically
// non-decreasing upload percentages; it is never invoked for uploads of
// unknown total size.
//
// The multipart body is assembled up front so the total size is known and
// progress can be derived from bytes sent.
func (c *Client) UploadMedia(ctx context.Context, draftID, flashcardID, filename string, file io.Reader, onProgress func(percent int)) (*domain.MediaUploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("flashcardId", flashcardID); err != nil {
		return nil, fmt.Errorf("genservice: write field: %w", err)
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("genservice: create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("genservice: copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("genservice: close multipart: %w", err)
	}

	total := int64(buf.Len())
	body := newProgressReader(&buf, total, onProgress)

	path := "/ai/drafts/" + draftID + "/media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("genservice: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = total

	// Uploads may trigger server-side processing; use the long client.
	resp, err := c.genClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "media upload failed",
			slog.String("draft_id", draftID),
			slog.String("flashcard_id", flashcardID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("genservice: upload media: %w", err)
	}
	defer resp.Body.Close()

	return c.decodeMediaResponse(ctx, resp, draftID, flashcardID)
}

// UploadMediaByPrompt asks the service to generate the media asset from a
// prompt instead of uploading a file. Same endpoint, JSON body, no
// byte-level progress.
func (c *Client) UploadMediaByPrompt(ctx context.Context, draftID, flashcardID, prompt string, mediaType domain.MediaType) (*domain.MediaUploadResult, error) {
	body := map[string]any{
		"prompt":      prompt,
		"mediaType":   mediaType.String(),
		"flashcardId": flashcardID,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("genservice: encode body: %w", err)
	}

	path := "/ai/drafts/" + draftID + "/media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("genservice: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.genClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genservice: upload media by prompt: %w", err)
	}
	defer resp.Body.Close()

	return c.decodeMediaResponse(ctx, resp, draftID, flashcardID)
}

// decodeMediaResponse decodes an upload response into its loose map form.
// Unlike other endpoints the full body is kept: URL resolution may need to
// search it at any depth.
func (c *Client) decodeMediaResponse(ctx context.Context, resp *http.Response, draftID, flashcardID string) (*domain.MediaUploadResult, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genservice: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("genservice: media upload: unexpected status %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("genservice: decode json: %w", err)
	}

	rec := domain.RawRecord(body)
	success, _ := body["success"].(bool)

	c.log.DebugContext(ctx, "media upload response",
		slog.String("draft_id", draftID),
		slog.String("flashcard_id", flashcardID),
		slog.Bool("success", success),
	)

	return &domain.MediaUploadResult{
		Success: success,
		Message: rec.String("message"),
		Body:    body,
	}, nil
}
