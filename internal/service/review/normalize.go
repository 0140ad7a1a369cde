package review

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/lingoforge/reviewdesk/internal/domain"
)

// normalize converts one raw drafted record into a domain.Flashcard, tagging
// it with its parent draft's metadata. orderIndex is the record's position in
// the flattened sequence; it participates in id synthesis when the record
// carries no identifier of its own.
func normalize(raw domain.RawRecord, orderIndex int, draft domain.Draft, now time.Time) domain.Flashcard {
	if raw == nil {
		raw = domain.RawRecord{}
	}

	lessonID := raw.String("lesson_id", "lessonId")
	if lessonID == "" {
		lessonID = draft.LessonID
	}

	bufferID := raw.String("buffer_id", "bufferId")
	if bufferID == "" {
		bufferID = draft.BufferID
	}

	front := raw.String("prompt")

	id := raw.String("_id", "id", "flashcard_id", "flashcardId")
	if id == "" {
		// Positional indices shift under refetch and filtering, so a missing
		// source id is replaced with a content hash instead.
		id = stableID(lessonID, front, orderIndex)
	}

	return domain.Flashcard{
		ID:         id,
		LessonID:   lessonID,
		Front:      front,
		Back:       deriveBack(raw),
		Difficulty: domain.DifficultyMedium,
		Status:     domain.ReviewStatusPending,
		BufferID:   bufferID,
		DraftID:    draft.DraftID,
		Raw:        raw,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// deriveBack computes the card's back text.
//
// MCQ records render their options list plus the correct answer when present;
// everything else falls back to the content subtext (or empty).
func deriveBack(raw domain.RawRecord) string {
	content := raw.Map("content_data", "contentData")

	if raw.String("answer_type", "answerType") == "mcq" && content != nil {
		if answer := content.Map("answer"); answer != nil {
			back := "Options: " + strings.Join(answer.Strings("options"), ", ")
			if correct := answer.String("correct"); correct != "" {
				back += " | Correct: " + correct
			}
			return back
		}
	}

	if content != nil {
		return content.String("subtext")
	}
	return ""
}

// stableID synthesizes an identifier from immutable content fields.
func stableID(lessonID, prompt string, orderIndex int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", lessonID, prompt, orderIndex)
	return fmt.Sprintf("gen-%016x", h.Sum64())
}
