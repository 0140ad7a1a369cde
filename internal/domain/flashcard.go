package domain

import (
	"time"

	"github.com/google/uuid"
)

// Draft is a server-held generation batch awaiting human review. It is
// created by the generation service and read-only to this application except
// for the per-item review status of its flashcards.
type Draft struct {
	DraftID    string
	BufferID   string
	LessonID   string
	Flashcards []RawRecord
}

// Flashcard is the normalized view of one raw drafted record.
type Flashcard struct {
	ID         string
	LessonID   string
	Front      string
	Back       string
	Difficulty Difficulty
	Status     ReviewStatus
	BufferID   string
	DraftID    string
	// Raw preserves the original record for round-trip edit and detail
	// rendering. Media attachment writes resolved URLs back into it.
	Raw       RawRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lesson is the minimal lesson record the review workflow needs. When the
// lesson fetch fails, a placeholder is substituted so the rest of the
// workflow remains usable.
type Lesson struct {
	ID          string
	ModuleID    string
	Name        string
	Description string
	Placeholder bool
}

// PlaceholderLesson builds the minimal stand-in record for a lesson whose
// fetch failed.
func PlaceholderLesson(lessonID string) Lesson {
	return Lesson{
		ID:          lessonID,
		Name:        "Lesson " + lessonID,
		Placeholder: true,
	}
}

// UploadTask is the ephemeral state of one in-flight media upload.
// ProgressPercent is 0 when the upload has unknown total size.
type UploadTask struct {
	DraftID         string
	FlashcardID     string
	ProgressPercent int
	StartedAt       time.Time
}

// ReviewEvent is one audit-trail entry recording a review decision outcome.
type ReviewEvent struct {
	ID          uuid.UUID
	LessonID    string
	FlashcardID string
	DraftID     string
	BufferID    string
	Action      ReviewAction
	Succeeded   bool
	CreatedAt   time.Time
}
