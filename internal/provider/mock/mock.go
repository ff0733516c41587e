// Package mock is a deterministic FaceProvider for tests and local
// development. Detection is driven by payload size, encoding by a
// SHA-256 hash of the crop bytes, so the same input always produces the
// same embedding.
package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/provider"
)

const embeddingDimension = 512

// Provider implements provider.FaceProvider deterministically.
type Provider struct {
	// FaceCount overrides the number of faces DetectFaces reports.
	// Zero means the default single centered face.
	FaceCount int
}

// New creates a mock provider reporting one face per image.
func New() *Provider {
	return &Provider{}
}

// WithFaceCount creates a mock provider reporting n faces per image.
func WithFaceCount(n int) *Provider {
	return &Provider{FaceCount: n}
}

// DetectFaces returns synthetic detections. Payloads under 1000 bytes
// simulate frames with no detectable face.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if len(image) < 1000 {
		return []provider.DetectedFace{}, nil
	}

	count := p.FaceCount
	if count <= 0 {
		count = 1
	}

	faces := make([]provider.DetectedFace, 0, count)
	for i := 0; i < count; i++ {
		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				X:      40 + i*180,
				Y:      60,
				Width:  160,
				Height: 160,
			},
			Confidence: 0.99,
		})
	}
	return faces, nil
}

// EncodeFace generates a deterministic unit-length embedding from the
// hash of the crop bytes.
func (p *Provider) EncodeFace(ctx context.Context, faceCrop []byte) ([]float64, error) {
	if len(faceCrop) == 0 {
		return nil, domain.ErrEncodingFailed
	}
	return generateEmbedding(faceCrop), nil
}

// Dimensions reports the mock embedding length.
func (p *Provider) Dimensions() int {
	return embeddingDimension
}

func generateEmbedding(data []byte) []float64 {
	hash := sha256.Sum256(data)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
		// Rotate through hash bytes with a position-dependent twist so
		// different dimensions are not simple repeats of each other.
		if i >= hashLen {
			embedding[i] *= math.Cos(float64(i))
		}
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceProvider = (*Provider)(nil)
