package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/index"
	"github.com/lousa-digital/chamada/internal/repository"
)

// Lifecycle owns the in-memory section indexes. Rebuilds are
// all-or-nothing: a fresh index is built from the section's current
// signatures and published by swapping the handle under the lock, so a
// reader either sees the old complete model or the new complete model,
// never a partial one. Readers capture the handle once and keep using
// it for the whole request even if a swap happens mid-search.
type Lifecycle struct {
	rosterRepo repository.RosterRepositoryInterface
	sigRepo    repository.SignatureRepositoryInterface
	notifier   Notifier

	mu          sync.RWMutex
	indexes     map[string]*index.SectionIndex
	generations map[string]uint64
}

func NewLifecycle(
	rosterRepo repository.RosterRepositoryInterface,
	sigRepo repository.SignatureRepositoryInterface,
) *Lifecycle {
	return &Lifecycle{
		rosterRepo:  rosterRepo,
		sigRepo:     sigRepo,
		notifier:    NopNotifier{},
		indexes:     make(map[string]*index.SectionIndex),
		generations: make(map[string]uint64),
	}
}

func (l *Lifecycle) WithNotifier(n Notifier) *Lifecycle {
	if n != nil {
		l.notifier = n
	}
	return l
}

// Train rebuilds the section's index from its stored signatures and
// publishes it. Signatures written after the roster read are picked up
// by the next rebuild, not this one.
func (l *Lifecycle) Train(ctx context.Context, sectionID string) (*domain.ModelInfo, error) {
	students, err := l.rosterRepo.ListSection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("train section %s: %w", sectionID, err)
	}
	if len(students) == 0 {
		return nil, domain.ErrNoStudents.WithMessage(fmt.Sprintf("section %s has no students", sectionID))
	}

	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}

	sigs, err := l.sigRepo.ListByStudentIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("train section %s: %w", sectionID, err)
	}
	if len(sigs) == 0 {
		return nil, domain.ErrNoStudents
	}

	entries := make([]index.Entry, len(sigs))
	for i, sig := range sigs {
		entries[i] = index.Entry{
			StudentID: sig.StudentID,
			Embedding: sig.Embedding,
		}
	}

	l.mu.Lock()
	generation := l.generations[sectionID] + 1

	idx, err := index.Build(sectionID, generation, entries)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	l.generations[sectionID] = generation
	l.indexes[sectionID] = idx
	l.mu.Unlock()

	info := &domain.ModelInfo{
		ModelID:       idx.ModelID(),
		SectionID:     sectionID,
		StudentsCount: idx.Len(),
		Generation:    idx.Generation(),
		BuiltAt:       idx.BuiltAt(),
	}

	l.notifier.ModelTrained(ctx, info)

	return info, nil
}

// Current returns the section's index, building it lazily on the first
// use after process start. A section with no stored signatures surfaces
// as model-not-trained so the caller can tell it apart from a frame
// with no matches.
func (l *Lifecycle) Current(ctx context.Context, sectionID string) (*index.SectionIndex, error) {
	l.mu.RLock()
	idx := l.indexes[sectionID]
	l.mu.RUnlock()

	if idx != nil {
		return idx, nil
	}

	if _, err := l.Train(ctx, sectionID); err != nil {
		if errors.Is(err, domain.ErrNoStudents) {
			return nil, domain.ErrEmptyIndex
		}
		return nil, err
	}

	l.mu.RLock()
	idx = l.indexes[sectionID]
	l.mu.RUnlock()

	if idx == nil {
		return nil, domain.ErrEmptyIndex
	}
	return idx, nil
}

// Status reports the section's training state without touching the
// index contents.
func (l *Lifecycle) Status(ctx context.Context, sectionID string) (*domain.ModelStatus, error) {
	students, err := l.rosterRepo.ListSection(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("status for section %s: %w", sectionID, err)
	}

	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}

	trained, err := l.sigRepo.CountByStudentIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("status for section %s: %w", sectionID, err)
	}

	status := &domain.ModelStatus{
		SectionID:            sectionID,
		StudentsCount:        len(students),
		TrainedStudentsCount: trained,
	}

	l.mu.RLock()
	if idx := l.indexes[sectionID]; idx != nil {
		status.IsTrained = true
		builtAt := idx.BuiltAt()
		status.LastTrainedAt = &builtAt
	}
	l.mu.RUnlock()

	return status, nil
}

// Drop discards the in-memory index for a section. The next recognize
// or Train rebuilds it from storage.
func (l *Lifecycle) Drop(sectionID string) {
	l.mu.Lock()
	delete(l.indexes, sectionID)
	l.mu.Unlock()
}
