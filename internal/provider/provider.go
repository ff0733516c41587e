// Package provider defines the boundary to the pre-trained face models.
// The engine treats detection and embedding as black-box capabilities;
// implementations wrap a local inference sidecar, a cloud API or a
// deterministic mock. Provider handles are built once at startup, are
// safe for concurrent use and hold no per-call mutable state.
package provider

import (
	"context"

	"github.com/lousa-digital/chamada/internal/domain"
)

// DetectedFace is one located face in an image, in source-image pixel
// coordinates. Transient.
type DetectedFace struct {
	BoundingBox domain.BoundingBox `json:"bounding_box"`
	Confidence  float64            `json:"confidence"`
}

// Detector locates faces in an encoded image. It always returns every
// face it finds above its internal floor; enrollment's exactly-one-face
// policy belongs to the caller, not here.
type Detector interface {
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// Encoder maps one cropped, aligned face image to a fixed-length
// embedding vector normalized to unit length. Deterministic for a fixed
// model version: the same crop yields the same vector.
type Encoder interface {
	EncodeFace(ctx context.Context, faceCrop []byte) ([]float64, error)

	// Dimensions reports the embedding vector length produced by this
	// encoder (128-512 for the supported models).
	Dimensions() int
}

// FaceProvider combines detection and encoding. Providers that can only
// do one half (Rekognition exposes no embeddings) implement the single
// interface and are paired by the factory.
type FaceProvider interface {
	Detector
	Encoder
}
