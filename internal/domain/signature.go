package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImageSource tells the pipeline whether a decoded image came from an
// enrollment upload or a live camera frame. Enrollment applies the
// exactly-one-face policy; recognition accepts any number of faces.
type ImageSource string

const (
	SourceEnrollment ImageSource = "enrollment"
	SourceLiveFrame  ImageSource = "live_frame"
)

// FaceSignature is the durable identity record for one student: the
// unit-normalized embedding centroid derived from their enrollment
// images. Exactly one current signature exists per student; a
// re-enrollment replaces the previous row, it never appends.
type FaceSignature struct {
	Ref         uuid.UUID `json:"signature_ref"`
	StudentID   string    `json:"student_id"`
	Embedding   []float64 `json:"-"`
	ImageCount  int       `json:"image_count"`
	Consistency float64   `json:"consistency"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Student is the roster view of a learner, owned by the attendance
// platform's datastore. The engine reads it for response enrichment and
// flips FaceRegistered after a successful enrollment.
type Student struct {
	ID             string `json:"student_id"`
	SectionID      string `json:"section_id"`
	RollNumber     string `json:"roll_number"`
	Name           string `json:"name"`
	FaceRegistered bool   `json:"face_registered"`
}
