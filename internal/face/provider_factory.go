// Package face wires the configured detection and encoding backends
// into the pair the engine consumes.
package face

import (
	"context"
	"fmt"

	"github.com/lousa-digital/chamada/internal/config"
	"github.com/lousa-digital/chamada/internal/provider"
	"github.com/lousa-digital/chamada/internal/provider/deepface"
	"github.com/lousa-digital/chamada/internal/provider/mock"
	"github.com/lousa-digital/chamada/internal/provider/rekognition"
)

// ProviderType selects the face model backend.
type ProviderType string

const (
	// ProviderTypeDeepFace runs detection and encoding against the local
	// DeepFace sidecar.
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition detects with AWS Rekognition. Rekognition
	// exposes no embedding vectors, so encoding still goes through the
	// DeepFace sidecar (hybrid mode).
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process backend for tests
	// and local development without a sidecar.
	ProviderTypeMock ProviderType = "mock"
)

// Pair is the detector/encoder combination the engine runs on. The two
// halves may come from different backends.
type Pair struct {
	Detector provider.Detector
	Encoder  provider.Encoder
}

// NewPair builds the configured backend pair.
//
// Environment variables (via config.Load):
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default "deepface")
//   - DEEPFACE_URL: DeepFace sidecar URL
//   - AWS_REGION: region for Rekognition (credentials via the AWS SDK chain)
func NewPair(ctx context.Context, cfg *config.Config) (*Pair, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		p := newDeepFaceProvider(cfg)
		return &Pair{Detector: p, Encoder: p}, nil

	case ProviderTypeRekognition:
		detector, err := rekognition.NewDetector(ctx, rekognition.Config{
			Region:        cfg.AWSRegion,
			MinConfidence: rekognition.DefaultConfig().MinConfidence,
		})
		if err != nil {
			return nil, fmt.Errorf("create rekognition detector: %w", err)
		}
		return &Pair{Detector: detector, Encoder: newDeepFaceProvider(cfg)}, nil

	case ProviderTypeMock:
		p := mock.New()
		return &Pair{Detector: p, Encoder: p}, nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

func newDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	dfCfg := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		dfCfg.BaseURL = cfg.DeepFaceURL
	}
	return deepface.NewProvider(dfCfg)
}
