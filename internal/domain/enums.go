package domain

// ReviewStatus represents the review state of a drafted flashcard.
//
// Transitions are one-way: PENDING -> APPROVED or PENDING -> REJECTED.
// The only way back to PENDING is a full reload of the lesson's drafts.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
)

func (s ReviewStatus) String() string { return string(s) }

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Difficulty represents the difficulty label of a flashcard. The generation
// service never varies it, so drafted cards always carry DifficultyMedium.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) String() string { return string(d) }

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MediaType is the kind of asset attached to a flashcard. Values are
// lowercase because they travel on the wire in media upload requests.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

func (m MediaType) String() string { return string(m) }

func (m MediaType) IsValid() bool {
	switch m {
	case MediaTypeImage, MediaTypeAudio, MediaTypeVideo:
		return true
	}
	return false
}

// ContentField returns the raw-record field that stores a resolved media URL
// for this media type.
func (m MediaType) ContentField() string {
	switch m {
	case MediaTypeAudio:
		return "audio_url"
	case MediaTypeVideo:
		return "video_url"
	default:
		return "image_url"
	}
}

// ReviewAction identifies a review decision for the audit trail.
type ReviewAction string

const (
	ReviewActionApprove    ReviewAction = "APPROVE"
	ReviewActionApproveAll ReviewAction = "APPROVE_ALL"
	ReviewActionReject     ReviewAction = "REJECT"
)

func (a ReviewAction) String() string { return string(a) }

func (a ReviewAction) IsValid() bool {
	switch a {
	case ReviewActionApprove, ReviewActionApproveAll, ReviewActionReject:
		return true
	}
	return false
}
