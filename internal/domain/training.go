package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImageProblem reports a per-image enrollment failure with its 1-based
// position in the uploaded set, matching the "image 3" style messaging
// the platform shows to teachers.
type ImageProblem struct {
	Index   int    `json:"image_index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EnrollmentResult is the outcome of a successful single enrollment.
type EnrollmentResult struct {
	StudentID       string    `json:"student_id"`
	SignatureRef    uuid.UUID `json:"signature_ref"`
	ImageCount      int       `json:"image_count"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// BulkItemStatus is the per-item terminal state of a bulk enrollment.
type BulkItemStatus string

const (
	BulkItemTrained BulkItemStatus = "trained"
	BulkItemFailed  BulkItemStatus = "failed"
	BulkItemSkipped BulkItemStatus = "skipped"
)

// BulkStudent is one row of a bulk enrollment request, in upload order.
type BulkStudent struct {
	SerialNo   int    `json:"serial_no"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
}

// TrainingOutcome is the per-student result of one bulk enrollment item.
// Items fail independently; one bad item never aborts its siblings.
type TrainingOutcome struct {
	SerialNo     int            `json:"serial_no"`
	RollNumber   string         `json:"roll_number"`
	Status       BulkItemStatus `json:"status"`
	StudentID    string         `json:"student_id,omitempty"`
	SignatureRef *uuid.UUID     `json:"signature_ref,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// BulkEnrollmentResult aggregates the per-item outcomes of one batch.
type BulkEnrollmentResult struct {
	SectionID string            `json:"section_id"`
	Total     int               `json:"total"`
	Trained   int               `json:"trained"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Results   []TrainingOutcome `json:"results"`
}

// ModelInfo describes a built section index.
type ModelInfo struct {
	ModelID       uuid.UUID `json:"model_id"`
	SectionID     string    `json:"section_id"`
	StudentsCount int       `json:"students_count"`
	Generation    uint64    `json:"generation"`
	BuiltAt       time.Time `json:"built_at"`
}

// ModelStatus is the pure read of a section's training state.
type ModelStatus struct {
	SectionID            string     `json:"section_id"`
	IsTrained            bool       `json:"is_trained"`
	LastTrainedAt        *time.Time `json:"last_trained_at,omitempty"`
	StudentsCount        int        `json:"students_count"`
	TrainedStudentsCount int        `json:"trained_students_count"`
}
