// Package engine orchestrates the face pipeline: enrollment (trainer),
// index lifecycle and live-frame recognition. It wires the decoder,
// provider, aggregator, index and repositories together; the packages
// underneath stay free of each other.
package engine

import (
	"context"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/provider"
)

const (
	// DefaultCropMargin pads the detected box before encoding so the
	// embedding model sees some context around the face.
	DefaultCropMargin = 0.2
	// DefaultCropSize is the square side length face crops are scaled to.
	DefaultCropSize = 160

	encodeAttempts = 2
)

// Notifier receives engine lifecycle events. Deliveries are best
// effort; the engine never blocks or fails on a notifier.
type Notifier interface {
	ModelTrained(ctx context.Context, info *domain.ModelInfo)
	BulkCompleted(ctx context.Context, result *domain.BulkEnrollmentResult)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ModelTrained(context.Context, *domain.ModelInfo)           {}
func (NopNotifier) BulkCompleted(context.Context, *domain.BulkEnrollmentResult) {}

// encodeFaceWithRetry retries a failed encode once. Provider calls are
// the flakiest step of the pipeline (sidecar restarts, transient 5xx);
// a single retry absorbs most of it without hiding real outages.
func encodeFaceWithRetry(ctx context.Context, encoder provider.Encoder, faceCrop []byte) ([]float64, error) {
	var embedding []float64
	var err error
	for attempt := 0; attempt < encodeAttempts; attempt++ {
		embedding, err = encoder.EncodeFace(ctx, faceCrop)
		if err == nil {
			return embedding, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, err
}
