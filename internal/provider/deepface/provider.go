// Package deepface wraps a DeepFace inference sidecar as both the face
// Detector and the face Encoder. The sidecar holds the pre-trained
// model weights; this package only speaks its HTTP contract.
package deepface

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/provider"
)

// embedding lengths of the models the sidecar supports
var modelDimensions = map[string]int{
	"Facenet512": 512,
	"Facenet":    128,
	"VGG-Face":   4096,
	"ArcFace":    512,
	"SFace":      128,
}

const defaultDimensions = 512

// Provider implements provider.FaceProvider against the sidecar.
type Provider struct {
	client *Client
	config Config
}

// NewProvider creates a new DeepFace provider.
func NewProvider(config Config) *Provider {
	def := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Detector == "" {
		config.Detector = def.Detector
	}
	if config.RetryCount == 0 {
		config.RetryCount = def.RetryCount
	}

	return &Provider{
		client: NewClient(config),
		config: config,
	}
}

// DetectFaces locates faces via the sidecar's extract endpoint. Returns
// every face found; callers apply their own count policy.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Extract(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				X:      result.FacialArea.X,
				Y:      result.FacialArea.Y,
				Width:  result.FacialArea.W,
				Height: result.FacialArea.H,
			},
			Confidence: result.Confidence,
		})
	}

	return faces, nil
}

// EncodeFace embeds a pre-cropped face. The "skip" detector tells the
// sidecar the crop is already aligned, so the embedding is a pure
// function of the crop bytes for a fixed model version.
func (p *Provider) EncodeFace(ctx context.Context, faceCrop []byte) ([]float64, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(faceCrop)

	resp, err := p.client.Represent(ctx, imageBase64, "skip")
	if err != nil {
		return nil, fmt.Errorf("encode face: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	embedding := resp.Results[0].Embedding
	if len(embedding) == 0 {
		return nil, ErrInvalidResponse
	}

	return embedding, nil
}

// Dimensions reports the configured model's embedding length.
func (p *Provider) Dimensions() int {
	if d, ok := modelDimensions[p.config.Model]; ok {
		return d
	}
	return defaultDimensions
}

var _ provider.FaceProvider = (*Provider)(nil)
