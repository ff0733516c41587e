// Package index holds the per-section searchable collection of face
// signatures (the "model"). An index is immutable after Build; rebuilds
// produce a fresh value that is published by handle swap, so in-flight
// searches never observe a partial build.
package index

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/signature"
)

// Entry is one student's signature inside an index.
type Entry struct {
	StudentID string
	Embedding []float64
}

// Candidate is one search result: a student and their cosine similarity
// to the query.
type Candidate struct {
	StudentID  string
	Similarity float64
}

// SectionIndex is the built model for one section. At classroom scale
// (tens to low hundreds of students) an exact linear scan is both
// sufficient and auditable; no approximate-nearest-neighbor structure
// is used.
type SectionIndex struct {
	modelID    uuid.UUID
	sectionID  string
	builtAt    time.Time
	generation uint64
	entries    []Entry
}

// Build constructs an index from the section's current signatures. It
// is a pure function of its inputs and all-or-nothing: zero entries
// fail with ErrEmptyIndex ("model not trained", which callers must keep
// distinct from "no matches").
func Build(sectionID string, generation uint64, entries []Entry) (*SectionIndex, error) {
	if len(entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}

	owned := make([]Entry, len(entries))
	for i, e := range entries {
		owned[i] = Entry{
			StudentID: e.StudentID,
			Embedding: signature.Normalize(e.Embedding),
		}
	}

	return &SectionIndex{
		modelID:    uuid.New(),
		sectionID:  sectionID,
		builtAt:    time.Now().UTC(),
		generation: generation,
		entries:    owned,
	}, nil
}

// Search returns up to k candidates ordered by descending cosine
// similarity, ties broken by lower student id for determinism.
func (idx *SectionIndex) Search(query []float64, k int) []Candidate {
	if k <= 0 || len(idx.entries) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(idx.entries))
	for _, e := range idx.entries {
		candidates = append(candidates, Candidate{
			StudentID:  e.StudentID,
			Similarity: signature.CosineSimilarity(query, e.Embedding),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].StudentID < candidates[j].StudentID
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// ModelID identifies this particular build.
func (idx *SectionIndex) ModelID() uuid.UUID { return idx.modelID }

// SectionID reports the section this index was built for.
func (idx *SectionIndex) SectionID() string { return idx.sectionID }

// BuiltAt reports when the index was built.
func (idx *SectionIndex) BuiltAt() time.Time { return idx.builtAt }

// Generation is the structural version number, monotonically increasing
// across rebuilds of the same section.
func (idx *SectionIndex) Generation() uint64 { return idx.generation }

// Len reports the number of students included in the build.
func (idx *SectionIndex) Len() int { return len(idx.entries) }
