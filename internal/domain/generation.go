package domain

// PreviewBatch is the result of one preview generation run: the correlation
// buffer id plus the raw drafted records, in generation order.
type PreviewBatch struct {
	BufferID   string
	Flashcards []RawRecord
}

// MediaUploadResult is the loosely-typed outcome of a media upload call.
// The service does not guarantee where in the response the asset URL lives,
// so the full decoded body is preserved for URL resolution.
type MediaUploadResult struct {
	Success bool
	Message string
	// Body is the full decoded response, envelope included.
	Body map[string]any
}
