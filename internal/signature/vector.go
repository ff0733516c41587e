// Package signature derives one durable face signature per student from
// the embeddings of their enrollment images.
package signature

import (
	"math"
)

// CosineSimilarity calculates the cosine similarity between two
// embedding vectors. Returns a value between -1.0 (opposite) and 1.0
// (identical). Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Normalize returns a copy of the embedding scaled to unit length.
// Zero vectors are returned unchanged.
func Normalize(embedding []float64) []float64 {
	if len(embedding) == 0 {
		return embedding
	}

	var norm float64
	for _, v := range embedding {
		norm += v * v
	}

	if norm == 0 {
		return embedding
	}

	norm = math.Sqrt(norm)
	normalized := make([]float64, len(embedding))
	for i, v := range embedding {
		normalized[i] = v / norm
	}

	return normalized
}

// Centroid computes the per-dimension mean of the given vectors. All
// vectors must share the same length.
func Centroid(embeddings [][]float64) []float64 {
	if len(embeddings) == 0 {
		return nil
	}

	dims := len(embeddings[0])
	centroid := make([]float64, dims)
	for _, emb := range embeddings {
		for i, v := range emb {
			centroid[i] += v
		}
	}

	n := float64(len(embeddings))
	for i := range centroid {
		centroid[i] /= n
	}

	return centroid
}
