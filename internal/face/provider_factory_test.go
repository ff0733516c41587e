package face

import (
	"context"
	"testing"

	"github.com/lousa-digital/chamada/internal/config"
	"github.com/lousa-digital/chamada/internal/provider/deepface"
	"github.com/lousa-digital/chamada/internal/provider/mock"
)

func TestNewPair_DeepFace(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		providerType string
		deepFaceURL  string
	}{
		{
			name:         "explicit deepface provider",
			providerType: "deepface",
			deepFaceURL:  "http://localhost:5000",
		},
		{
			name:         "empty provider defaults to deepface",
			providerType: "",
			deepFaceURL:  "http://localhost:5000",
		},
		{
			name:         "custom deepface URL",
			providerType: "deepface",
			deepFaceURL:  "http://custom-host:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				ProviderType: tt.providerType,
				DeepFaceURL:  tt.deepFaceURL,
			}

			pair, err := NewPair(ctx, cfg)
			if err != nil {
				t.Fatalf("NewPair() error = %v", err)
			}

			if _, ok := pair.Detector.(*deepface.Provider); !ok {
				t.Errorf("NewPair() detector type %T, want *deepface.Provider", pair.Detector)
			}
			if _, ok := pair.Encoder.(*deepface.Provider); !ok {
				t.Errorf("NewPair() encoder type %T, want *deepface.Provider", pair.Encoder)
			}
			// Both halves share one sidecar client.
			if pair.Detector.(*deepface.Provider) != pair.Encoder.(*deepface.Provider) {
				t.Error("NewPair() deepface detector and encoder should be the same instance")
			}
		})
	}
}

func TestNewPair_Mock(t *testing.T) {
	pair, err := NewPair(context.Background(), &config.Config{ProviderType: "mock"})
	if err != nil {
		t.Fatalf("NewPair() error = %v", err)
	}

	if _, ok := pair.Detector.(*mock.Provider); !ok {
		t.Errorf("NewPair() detector type %T, want *mock.Provider", pair.Detector)
	}
	if pair.Encoder.Dimensions() != 512 {
		t.Errorf("NewPair() mock encoder dimensions = %d, want 512", pair.Encoder.Dimensions())
	}
}

func TestNewPair_Unknown(t *testing.T) {
	_, err := NewPair(context.Background(), &config.Config{ProviderType: "opencv"})
	if err == nil {
		t.Fatal("NewPair() expected error for unknown provider type")
	}
}
