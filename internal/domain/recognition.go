package domain

import (
	"time"

	"github.com/google/uuid"
)

// BoundingBox locates a detected face in source-image pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MatchTier classifies how confident a recognition match is under the
// two-tier threshold policy: auto matches need no confirmation, while
// suggested matches carry the raw similarity so the caller can prompt.
type MatchTier string

const (
	TierAuto      MatchTier = "auto"
	TierSuggested MatchTier = "suggested"
)

// Match is one recognized face in a frame.
type Match struct {
	StudentID   string      `json:"student_id"`
	RollNumber  string      `json:"roll_number,omitempty"`
	Name        string      `json:"name,omitempty"`
	Similarity  float64     `json:"confidence"`
	Tier        MatchTier   `json:"tier"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// UnmatchedFace is a detected face that could not be attributed to an
// enrolled student, either below threshold or lost to a per-face
// processing error.
type UnmatchedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Message     string      `json:"message,omitempty"`
}

// RecognitionResult is the outcome of matching one frame against a
// section's index. Recognized and Unrecognized together correspond 1:1
// with the detected bounding boxes, in detection order. ModelTrained
// is false when the section has no trained model; detection still ran
// and every face is reported unrecognized.
type RecognitionResult struct {
	FacesDetected int             `json:"faces_detected"`
	ModelTrained  bool            `json:"model_trained"`
	Recognized    []Match         `json:"recognized"`
	Unrecognized  []UnmatchedFace `json:"unrecognized"`
	LatencyMs     int64           `json:"latency_ms"`
}

// RecognitionAudit is the engine-side observability row written per
// recognize call. It is diagnostics only; the attendance ledger itself
// belongs to the external platform.
type RecognitionAudit struct {
	ID              uuid.UUID `json:"id"`
	SectionID       string    `json:"section_id"`
	FacesDetected   int       `json:"faces_detected"`
	RecognizedCount int       `json:"recognized_count"`
	TopSimilarity   *float64  `json:"top_similarity,omitempty"`
	ModelGeneration uint64    `json:"model_generation"`
	LatencyMs       int64     `json:"latency_ms"`
	CreatedAt       time.Time `json:"created_at"`
}
