package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/imaging"
	"github.com/lousa-digital/chamada/internal/provider"
	"github.com/lousa-digital/chamada/internal/repository"
	"github.com/lousa-digital/chamada/internal/signature"
)

const (
	// DefaultMinImages and DefaultMaxImages bound the single-enrollment
	// image set. Fewer gives a signature too sensitive to one bad
	// capture; more adds latency without measurable accuracy gain.
	DefaultMinImages = 5
	DefaultMaxImages = 10

	// DefaultBulkWorkers caps the bulk enrollment worker pool.
	DefaultBulkWorkers = 4
)

// EnrollmentRequest is one student's image set for single enrollment.
type EnrollmentRequest struct {
	StudentID string
	Overwrite bool
	Images    [][]byte
}

// BulkRequest is a whole-section enrollment batch: one image per
// student, keyed by the student's serial number in the upload.
type BulkRequest struct {
	SectionID string
	Overwrite bool
	Students  []domain.BulkStudent
	Images    map[int][]byte
}

// Trainer builds and stores face signatures.
type Trainer struct {
	detector   provider.Detector
	encoder    provider.Encoder
	decoder    *imaging.Decoder
	aggregator *signature.Aggregator
	sigRepo    repository.SignatureRepositoryInterface
	rosterRepo repository.RosterRepositoryInterface
	notifier   Notifier
	logger     *slog.Logger

	minImages  int
	maxImages  int
	cropMargin float64
	cropSize   int
	workers    int
}

func NewTrainer(
	detector provider.Detector,
	encoder provider.Encoder,
	decoder *imaging.Decoder,
	aggregator *signature.Aggregator,
	sigRepo repository.SignatureRepositoryInterface,
	rosterRepo repository.RosterRepositoryInterface,
) *Trainer {
	return &Trainer{
		detector:   detector,
		encoder:    encoder,
		decoder:    decoder,
		aggregator: aggregator,
		sigRepo:    sigRepo,
		rosterRepo: rosterRepo,
		notifier:   NopNotifier{},
		logger:     slog.Default(),
		minImages:  DefaultMinImages,
		maxImages:  DefaultMaxImages,
		cropMargin: DefaultCropMargin,
		cropSize:   DefaultCropSize,
		workers:    DefaultBulkWorkers,
	}
}

func (t *Trainer) WithImageBounds(minImages, maxImages int) *Trainer {
	if minImages > 0 {
		t.minImages = minImages
	}
	if maxImages >= t.minImages {
		t.maxImages = maxImages
	}
	return t
}

func (t *Trainer) WithWorkers(workers int) *Trainer {
	if workers > 0 {
		t.workers = workers
	}
	return t
}

func (t *Trainer) WithNotifier(n Notifier) *Trainer {
	if n != nil {
		t.notifier = n
	}
	return t
}

func (t *Trainer) WithLogger(logger *slog.Logger) *Trainer {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// EnrollSingle builds one student's signature from 5-10 enrollment
// images. It fails closed: every image is checked and all problems are
// reported with their 1-based positions, and nothing is stored unless
// the full set is usable.
func (t *Trainer) EnrollSingle(ctx context.Context, req *EnrollmentRequest) (*domain.EnrollmentResult, []domain.ImageProblem, error) {
	n := len(req.Images)
	if n < t.minImages || n > t.maxImages {
		return nil, nil, domain.ErrValidationFailed.WithMessage(
			fmt.Sprintf("expected between %d and %d images, got %d", t.minImages, t.maxImages, n),
		)
	}

	if !req.Overwrite {
		if _, err := t.sigRepo.GetByStudentID(ctx, req.StudentID); err == nil {
			return nil, nil, domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrSignatureNotFound) {
			return nil, nil, err
		}
	}

	embeddings := make([][]float64, 0, n)
	var problems []domain.ImageProblem

	for i, data := range req.Images {
		embedding, err := t.processEnrollmentImage(ctx, data)
		if err != nil {
			problems = append(problems, imageProblem(i+1, err))
			continue
		}
		embeddings = append(embeddings, embedding)
	}

	if len(problems) > 0 {
		return nil, problems, domain.ErrValidationFailed.WithMessage(
			fmt.Sprintf("%d of %d enrollment images unusable", len(problems), n),
		)
	}

	agg, err := t.aggregator.Aggregate(embeddings)
	if err != nil {
		return nil, nil, err
	}

	sig := &domain.FaceSignature{
		StudentID:   req.StudentID,
		Embedding:   agg.Embedding,
		ImageCount:  agg.ImageCount,
		Consistency: agg.Consistency,
	}
	if err := t.storeSignature(ctx, sig, req.Overwrite); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return nil, nil, err
		}
		return nil, nil, domain.ErrTrainingFailed.WithError(err)
	}

	// The flag is derived data owned by the platform roster; the stored
	// signature is the source of truth, so a failed flip is not fatal.
	if err := t.rosterRepo.MarkFaceRegistered(ctx, req.StudentID); err != nil {
		t.logger.Warn("failed to mark face registered",
			"student_id", req.StudentID,
			"error", err,
		)
	}

	return &domain.EnrollmentResult{
		StudentID:       req.StudentID,
		SignatureRef:    sig.Ref,
		ImageCount:      agg.ImageCount,
		ConfidenceScore: agg.Consistency,
	}, nil, nil
}

// Unenroll removes a student's stored signature. The roster flag is
// cleared best effort; the section's next Train drops the student from
// the in-memory index.
func (t *Trainer) Unenroll(ctx context.Context, studentID string) error {
	if err := t.sigRepo.Delete(ctx, studentID); err != nil {
		return err
	}
	if err := t.rosterRepo.ClearFaceRegistered(ctx, studentID); err != nil {
		t.logger.Warn("failed to clear face registered flag",
			"student_id", studentID,
			"error", err,
		)
	}
	return nil
}

// storeSignature persists the signature. Without overwrite the insert
// relies on the store's uniqueness constraint, so a concurrent
// enrollment for the same student surfaces as already_registered even
// when both passed the pre-check.
func (t *Trainer) storeSignature(ctx context.Context, sig *domain.FaceSignature, overwrite bool) error {
	if overwrite {
		return t.sigRepo.Upsert(ctx, sig)
	}
	return t.sigRepo.Insert(ctx, sig)
}

// processEnrollmentImage runs one image through decode, the
// exactly-one-face policy and the encoder.
func (t *Trainer) processEnrollmentImage(ctx context.Context, data []byte) ([]float64, error) {
	img, err := t.decoder.Decode(data, domain.SourceEnrollment)
	if err != nil {
		return nil, err
	}

	faces, err := t.detector.DetectFaces(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, domain.ErrFaceNotDetected
	}
	if len(faces) > 1 {
		return nil, domain.ErrMultipleFaces.WithMessage(
			fmt.Sprintf("%d faces detected, enrollment images must contain a single face", len(faces)),
		)
	}

	crop, err := imaging.CropFace(img, faces[0].BoundingBox, t.cropMargin, t.cropSize)
	if err != nil {
		return nil, domain.ErrEncodingFailed.WithError(err)
	}

	embedding, err := encodeFaceWithRetry(ctx, t.encoder, crop)
	if err != nil {
		return nil, domain.ErrEncodingFailed.WithError(err)
	}

	return embedding, nil
}

// EnrollBulk enrolls a whole section from one image per student. Items
// run independently across a bounded worker pool; one bad item never
// aborts its siblings. Caller cancellation stops dispatch of new items,
// in-flight items run to completion.
func (t *Trainer) EnrollBulk(ctx context.Context, req *BulkRequest) (*domain.BulkEnrollmentResult, error) {
	if len(req.Students) == 0 {
		return nil, domain.ErrValidationFailed.WithMessage("bulk enrollment needs at least one student")
	}

	outcomes := make([]domain.TrainingOutcome, len(req.Students))

	workers := t.workers
	if workers > len(req.Students) {
		workers = len(req.Students)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = t.enrollBulkItem(ctx, req, req.Students[i])
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range req.Students {
		select {
		case jobs <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	// Items never dispatched because of cancellation are reported as
	// skipped rather than silently missing.
	for i := dispatched; i < len(req.Students); i++ {
		outcomes[i] = domain.TrainingOutcome{
			SerialNo:   req.Students[i].SerialNo,
			RollNumber: req.Students[i].RollNumber,
			Status:     domain.BulkItemSkipped,
			ErrorCode:  "cancelled",
			Message:    "batch cancelled before this item was processed",
		}
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].SerialNo < outcomes[j].SerialNo
	})

	result := &domain.BulkEnrollmentResult{
		SectionID: req.SectionID,
		Total:     len(req.Students),
		Results:   outcomes,
	}
	for _, o := range outcomes {
		switch o.Status {
		case domain.BulkItemTrained:
			result.Trained++
		case domain.BulkItemFailed:
			result.Failed++
		case domain.BulkItemSkipped:
			result.Skipped++
		}
	}

	t.notifier.BulkCompleted(ctx, result)

	return result, nil
}

func (t *Trainer) enrollBulkItem(ctx context.Context, req *BulkRequest, student domain.BulkStudent) domain.TrainingOutcome {
	outcome := domain.TrainingOutcome{
		SerialNo:   student.SerialNo,
		RollNumber: student.RollNumber,
	}

	fail := func(err error) domain.TrainingOutcome {
		outcome.Status = domain.BulkItemFailed
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			outcome.ErrorCode = appErr.Code
			outcome.Message = appErr.Message
		} else {
			outcome.ErrorCode = domain.ErrInternal.Code
			outcome.Message = err.Error()
		}
		return outcome
	}

	roster, err := t.rosterRepo.GetByRollNumber(ctx, req.SectionID, student.RollNumber)
	if err != nil {
		return fail(err)
	}
	outcome.StudentID = roster.ID

	data, ok := req.Images[student.SerialNo]
	if !ok || len(data) == 0 {
		return fail(domain.ErrFaceNotDetected.WithMessage(
			fmt.Sprintf("no image supplied for serial %d", student.SerialNo),
		))
	}

	if !req.Overwrite {
		if _, err := t.sigRepo.GetByStudentID(ctx, roster.ID); err == nil {
			outcome.Status = domain.BulkItemSkipped
			outcome.ErrorCode = domain.ErrAlreadyRegistered.Code
			outcome.Message = domain.ErrAlreadyRegistered.Message
			return outcome
		} else if !errors.Is(err, domain.ErrSignatureNotFound) {
			return fail(err)
		}
	}

	embedding, err := t.processEnrollmentImage(ctx, data)
	if err != nil {
		return fail(err)
	}

	// Single image per student here, so the aggregator takes its
	// one-embedding branch: consistency fixed at 1.0.
	agg, err := t.aggregator.Aggregate([][]float64{embedding})
	if err != nil {
		return fail(err)
	}

	sig := &domain.FaceSignature{
		StudentID:   roster.ID,
		Embedding:   agg.Embedding,
		ImageCount:  agg.ImageCount,
		Consistency: agg.Consistency,
	}
	if err := t.storeSignature(ctx, sig, req.Overwrite); err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			outcome.Status = domain.BulkItemSkipped
			outcome.ErrorCode = domain.ErrAlreadyRegistered.Code
			outcome.Message = domain.ErrAlreadyRegistered.Message
			return outcome
		}
		return fail(domain.ErrTrainingFailed.WithError(err))
	}

	if err := t.rosterRepo.MarkFaceRegistered(ctx, roster.ID); err != nil {
		t.logger.Warn("failed to mark face registered",
			"student_id", roster.ID,
			"error", err,
		)
	}

	outcome.Status = domain.BulkItemTrained
	outcome.SignatureRef = &sig.Ref
	return outcome
}

// imageProblem maps a pipeline error to its per-image diagnostic with
// the 1-based position teachers see in the enrollment UI.
func imageProblem(index int, err error) domain.ImageProblem {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return domain.ImageProblem{
			Index:   index,
			Code:    appErr.Code,
			Message: fmt.Sprintf("image %d: %s", index, appErr.Message),
		}
	}
	return domain.ImageProblem{
		Index:   index,
		Code:    domain.ErrInternal.Code,
		Message: fmt.Sprintf("image %d: %v", index, err),
	}
}
