package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/imaging"
	"github.com/lousa-digital/chamada/internal/index"
	"github.com/lousa-digital/chamada/internal/provider"
	"github.com/lousa-digital/chamada/internal/repository"
)

const (
	// DefaultHighThreshold is the auto-accept similarity: at or above it
	// a match needs no teacher confirmation.
	DefaultHighThreshold = 0.85
	// DefaultLowThreshold is the suggestion floor: matches between the
	// two thresholds are surfaced for confirmation, below it the face is
	// unrecognized.
	DefaultLowThreshold = 0.70
)

// Recognizer matches live classroom frames against a section's index.
type Recognizer struct {
	detector   provider.Detector
	encoder    provider.Encoder
	decoder    *imaging.Decoder
	lifecycle  *Lifecycle
	rosterRepo repository.RosterRepositoryInterface
	auditRepo  repository.RecognitionAuditRepositoryInterface

	highThreshold float64
	lowThreshold  float64
	cropMargin    float64
	cropSize      int
}

func NewRecognizer(
	detector provider.Detector,
	encoder provider.Encoder,
	decoder *imaging.Decoder,
	lifecycle *Lifecycle,
	rosterRepo repository.RosterRepositoryInterface,
	auditRepo repository.RecognitionAuditRepositoryInterface,
) *Recognizer {
	return &Recognizer{
		detector:      detector,
		encoder:       encoder,
		decoder:       decoder,
		lifecycle:     lifecycle,
		rosterRepo:    rosterRepo,
		auditRepo:     auditRepo,
		highThreshold: DefaultHighThreshold,
		lowThreshold:  DefaultLowThreshold,
		cropMargin:    DefaultCropMargin,
		cropSize:      DefaultCropSize,
	}
}

func (r *Recognizer) WithThresholds(high, low float64) *Recognizer {
	if high > 0 && low > 0 && high >= low {
		r.highThreshold = high
		r.lowThreshold = low
	}
	return r
}

// faceOutcome is the per-face state while a frame moves through the
// pipeline, kept in detection order so the response slices can be
// assembled order-preserving at the end.
type faceOutcome struct {
	match     *domain.Match
	unmatched *domain.UnmatchedFace
}

// Recognize matches every face in the frame against the section's
// index. Per-face failures isolate to that face and surface it as
// unrecognized; only frame-level problems (undecodable image, failed
// index build) fail the whole call. An untrained section degrades
// rather than failing: detection still runs and every face is
// reported unrecognized, with ModelTrained false on the result.
func (r *Recognizer) Recognize(ctx context.Context, sectionID string, frame []byte) (*domain.RecognitionResult, error) {
	start := time.Now()

	img, err := r.decoder.Decode(frame, domain.SourceLiveFrame)
	if err != nil {
		return nil, err
	}

	idx, err := r.lifecycle.Current(ctx, sectionID)
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyIndex) {
			return nil, err
		}
		idx = nil
	}

	faces, err := r.detector.DetectFaces(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("section %s: detect faces: %w", sectionID, err)
	}

	outcomes := make([]faceOutcome, len(faces))
	for i, face := range faces {
		outcomes[i] = r.matchFace(ctx, idx, img, face)
	}

	r.demoteDuplicates(outcomes)

	result := &domain.RecognitionResult{
		FacesDetected: len(faces),
		ModelTrained:  idx != nil,
		Recognized:    []domain.Match{},
		Unrecognized:  []domain.UnmatchedFace{},
	}
	for _, o := range outcomes {
		if o.match != nil {
			result.Recognized = append(result.Recognized, *o.match)
		} else if o.unmatched != nil {
			result.Unrecognized = append(result.Unrecognized, *o.unmatched)
		}
	}

	r.enrich(ctx, sectionID, result.Recognized)

	result.LatencyMs = time.Since(start).Milliseconds()

	var generation uint64
	if idx != nil {
		generation = idx.Generation()
	}
	r.audit(ctx, sectionID, generation, result)

	return result, nil
}

// matchFace runs one detected face through crop, encode and a k=1
// index search, then applies the two-tier threshold policy. With no
// index the face goes straight to unrecognized; there is nothing to
// match against, so no encoding is spent on it.
func (r *Recognizer) matchFace(ctx context.Context, idx *index.SectionIndex, img *imaging.FaceImage, face provider.DetectedFace) faceOutcome {
	if idx == nil {
		return faceOutcome{unmatched: &domain.UnmatchedFace{
			BoundingBox: face.BoundingBox,
			Message:     "no trained model for this section",
		}}
	}

	crop, err := imaging.CropFace(img, face.BoundingBox, r.cropMargin, r.cropSize)
	if err != nil {
		return faceOutcome{unmatched: &domain.UnmatchedFace{
			BoundingBox: face.BoundingBox,
			Message:     "face region could not be processed",
		}}
	}

	embedding, err := encodeFaceWithRetry(ctx, r.encoder, crop)
	if err != nil {
		return faceOutcome{unmatched: &domain.UnmatchedFace{
			BoundingBox: face.BoundingBox,
			Message:     "face embedding could not be computed",
		}}
	}

	candidates := idx.Search(embedding, 1)
	if len(candidates) == 0 || candidates[0].Similarity < r.lowThreshold {
		return faceOutcome{unmatched: &domain.UnmatchedFace{
			BoundingBox: face.BoundingBox,
		}}
	}

	best := candidates[0]
	tier := domain.TierSuggested
	if best.Similarity >= r.highThreshold {
		tier = domain.TierAuto
	}

	return faceOutcome{match: &domain.Match{
		StudentID:   best.StudentID,
		Similarity:  best.Similarity,
		Tier:        tier,
		BoundingBox: face.BoundingBox,
	}}
}

// demoteDuplicates enforces one-match-per-student per frame: when two
// faces resolve to the same student, the higher similarity wins and the
// other is demoted to unrecognized. Ties keep the earlier detection.
func (r *Recognizer) demoteDuplicates(outcomes []faceOutcome) {
	best := make(map[string]int)
	for i, o := range outcomes {
		if o.match == nil {
			continue
		}
		prev, seen := best[o.match.StudentID]
		if !seen {
			best[o.match.StudentID] = i
			continue
		}
		loser := i
		if o.match.Similarity > outcomes[prev].match.Similarity {
			loser = prev
			best[o.match.StudentID] = i
		}
		outcomes[loser] = faceOutcome{unmatched: &domain.UnmatchedFace{
			BoundingBox: outcomes[loser].match.BoundingBox,
			Message:     "another face in the frame matched this student with higher confidence",
		}}
	}
}

// enrich fills roll number and name from the roster. Best effort; a
// roster read failure leaves the ids bare rather than failing the call.
func (r *Recognizer) enrich(ctx context.Context, sectionID string, matches []domain.Match) {
	if len(matches) == 0 {
		return
	}

	students, err := r.rosterRepo.ListSection(ctx, sectionID)
	if err != nil {
		return
	}

	byID := make(map[string]domain.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}

	for i := range matches {
		if s, ok := byID[matches[i].StudentID]; ok {
			matches[i].RollNumber = s.RollNumber
			matches[i].Name = s.Name
		}
	}
}

// audit writes the per-call diagnostics row. Failures are swallowed:
// the recognition result was already determined.
func (r *Recognizer) audit(ctx context.Context, sectionID string, generation uint64, result *domain.RecognitionResult) {
	if r.auditRepo == nil {
		return
	}

	audit := &domain.RecognitionAudit{
		SectionID:       sectionID,
		FacesDetected:   result.FacesDetected,
		RecognizedCount: len(result.Recognized),
		ModelGeneration: generation,
		LatencyMs:       result.LatencyMs,
	}
	for _, m := range result.Recognized {
		if audit.TopSimilarity == nil || m.Similarity > *audit.TopSimilarity {
			sim := m.Similarity
			audit.TopSimilarity = &sim
		}
	}

	_ = r.auditRepo.Create(ctx, audit)
}
