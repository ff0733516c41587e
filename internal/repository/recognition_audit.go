package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lousa-digital/chamada/internal/domain"
)

// RecognitionAuditRepository persists one diagnostics row per recognize
// call. Writes are best effort from the caller's point of view: a
// failed audit insert never fails the recognition itself.
type RecognitionAuditRepository struct {
	pool PgxPool
}

func NewRecognitionAuditRepository(pool PgxPool) *RecognitionAuditRepository {
	return &RecognitionAuditRepository{pool: pool}
}

func (r *RecognitionAuditRepository) Create(ctx context.Context, audit *domain.RecognitionAudit) error {
	query := `
		INSERT INTO recognition_audits (id, section_id, faces_detected, recognized_count, top_similarity, model_generation, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		audit.ID,
		audit.SectionID,
		audit.FacesDetected,
		audit.RecognizedCount,
		audit.TopSimilarity,
		audit.ModelGeneration,
		audit.LatencyMs,
	).Scan(&audit.CreatedAt)

	if err != nil {
		return fmt.Errorf("create recognition audit: %w", err)
	}

	return nil
}

var _ RecognitionAuditRepositoryInterface = (*RecognitionAuditRepository)(nil)
