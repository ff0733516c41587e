package signature

import (
	"fmt"

	"github.com/lousa-digital/chamada/internal/domain"
)

// DefaultConsistencyFloor is the minimum pairwise cosine similarity the
// enrollment images of one student are allowed to have. Wide
// disagreement among "same person" images indicates a capture error
// (wrong person mixed in, extreme angle variance).
const DefaultConsistencyFloor = 0.4

// Aggregator combines per-image embeddings into one representative
// signature: the re-normalized centroid of the unit-normalized inputs.
// Simpler than multi-template matching and robust enough at classroom
// scale.
type Aggregator struct {
	consistencyFloor float64
}

// NewAggregator creates an Aggregator. A non-positive floor falls back
// to DefaultConsistencyFloor.
func NewAggregator(consistencyFloor float64) *Aggregator {
	if consistencyFloor <= 0 {
		consistencyFloor = DefaultConsistencyFloor
	}
	return &Aggregator{consistencyFloor: consistencyFloor}
}

// Result carries the derived signature vector and its quality metadata.
type Result struct {
	Embedding   []float64
	ImageCount  int
	Consistency float64
}

// Aggregate derives the representative signature for one student from
// their per-image embeddings.
//
// The single-embedding case is an explicit branch for bulk enrollment,
// where only one image per student is supplied: the embedding becomes
// the signature directly, consistency is fixed at 1.0 and no pairwise
// check runs. Multi-image batches get the centroid plus the minimum
// pairwise consistency gate.
func (a *Aggregator) Aggregate(embeddings [][]float64) (*Result, error) {
	if len(embeddings) == 0 {
		return nil, domain.ErrLowQuality.WithError(fmt.Errorf("no usable embeddings"))
	}

	dims := len(embeddings[0])
	for i, emb := range embeddings {
		if len(emb) == 0 {
			return nil, domain.ErrLowQuality.WithError(fmt.Errorf("embedding %d is empty", i+1))
		}
		if len(emb) != dims {
			return nil, domain.ErrLowQuality.WithError(fmt.Errorf("embedding %d has %d dimensions, want %d", i+1, len(emb), dims))
		}
	}

	normalized := make([][]float64, len(embeddings))
	for i, emb := range embeddings {
		normalized[i] = Normalize(emb)
	}

	if len(normalized) == 1 {
		return &Result{
			Embedding:   normalized[0],
			ImageCount:  1,
			Consistency: 1.0,
		}, nil
	}

	consistency := minPairwiseSimilarity(normalized)
	if consistency < a.consistencyFloor {
		return nil, domain.ErrLowQuality.WithMessage(
			fmt.Sprintf("enrollment images disagree: consistency %.2f below floor %.2f", consistency, a.consistencyFloor),
		)
	}

	return &Result{
		Embedding:   Normalize(Centroid(normalized)),
		ImageCount:  len(normalized),
		Consistency: consistency,
	}, nil
}

// minPairwiseSimilarity returns the smallest cosine similarity over all
// pairs. O(n²) with n ≤ 10 enrollment images.
func minPairwiseSimilarity(embeddings [][]float64) float64 {
	minSim := 1.0
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			if sim := CosineSimilarity(embeddings[i], embeddings[j]); sim < minSim {
				minSim = sim
			}
		}
	}
	return minSim
}
