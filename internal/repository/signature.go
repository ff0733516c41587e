package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lousa-digital/chamada/internal/domain"
)

// SignatureRepository is the embedding store. One row per student; the
// UNIQUE(student_id) constraint plus the single upsert statement give
// atomic replace semantics, so a re-enrollment supersedes the previous
// signature without a torn-write window and writes to the same student
// serialize on the row lock.
type SignatureRepository struct {
	pool PgxPool
}

func NewSignatureRepository(pool PgxPool) *SignatureRepository {
	return &SignatureRepository{pool: pool}
}

func toVector(embedding []float64) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	floats := make([]float32, len(embedding))
	for i, v := range embedding {
		floats[i] = float32(v)
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func fromVector(vec *pgvector.Vector) []float64 {
	if vec == nil || vec.Slice() == nil {
		return nil
	}
	embedding := make([]float64, len(vec.Slice()))
	for i, v := range vec.Slice() {
		embedding[i] = float64(v)
	}
	return embedding
}

// Upsert stores the signature, replacing any prior signature for the
// same student. Idempotent; last writer wins.
func (r *SignatureRepository) Upsert(ctx context.Context, sig *domain.FaceSignature) error {
	query := `
		INSERT INTO face_signatures (id, student_id, embedding, image_count, consistency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (student_id)
		DO UPDATE SET
			id = EXCLUDED.id,
			embedding = EXCLUDED.embedding,
			image_count = EXCLUDED.image_count,
			consistency = EXCLUDED.consistency,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	if sig.Ref == uuid.Nil {
		sig.Ref = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		sig.Ref,
		sig.StudentID,
		toVector(sig.Embedding),
		sig.ImageCount,
		sig.Consistency,
	).Scan(&sig.CreatedAt, &sig.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert signature for student %s: %w", sig.StudentID, err)
	}

	return nil
}

// Insert stores a signature for a student that must not already have
// one. A concurrent enrollment for the same student loses the race on
// the UNIQUE(student_id) constraint instead of silently overwriting.
func (r *SignatureRepository) Insert(ctx context.Context, sig *domain.FaceSignature) error {
	query := `
		INSERT INTO face_signatures (id, student_id, embedding, image_count, consistency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if sig.Ref == uuid.Nil {
		sig.Ref = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		sig.Ref,
		sig.StudentID,
		toVector(sig.Embedding),
		sig.ImageCount,
		sig.Consistency,
	).Scan(&sig.CreatedAt, &sig.UpdatedAt)

	if isUniqueViolation(err) {
		return domain.ErrAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("insert signature for student %s: %w", sig.StudentID, err)
	}

	return nil
}

// GetByStudentID fetches the current signature for one student.
func (r *SignatureRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.FaceSignature, error) {
	query := `
		SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at
		FROM face_signatures
		WHERE student_id = $1
	`

	var sig domain.FaceSignature
	var embedding *pgvector.Vector

	err := r.pool.QueryRow(ctx, query, studentID).Scan(
		&sig.Ref,
		&sig.StudentID,
		&embedding,
		&sig.ImageCount,
		&sig.Consistency,
		&sig.CreatedAt,
		&sig.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSignatureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get signature by student_id: %w", err)
	}

	sig.Embedding = fromVector(embedding)
	return &sig, nil
}

// ListByStudentIDs fetches the current signatures for the given roster.
// Students without a signature are simply absent from the result; the
// store is identity-agnostic about section membership and takes the id
// list from the roster collaborator.
func (r *SignatureRepository) ListByStudentIDs(ctx context.Context, studentIDs []string) ([]domain.FaceSignature, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at
		FROM face_signatures
		WHERE student_id = ANY($1)
		ORDER BY student_id
	`

	rows, err := r.pool.Query(ctx, query, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	var sigs []domain.FaceSignature
	for rows.Next() {
		var sig domain.FaceSignature
		var embedding *pgvector.Vector

		if err := rows.Scan(
			&sig.Ref,
			&sig.StudentID,
			&embedding,
			&sig.ImageCount,
			&sig.Consistency,
			&sig.CreatedAt,
			&sig.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}

		sig.Embedding = fromVector(embedding)
		sigs = append(sigs, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signatures: %w", err)
	}

	return sigs, nil
}

// CountByStudentIDs reports how many of the given students have a
// signature on record.
func (r *SignatureRepository) CountByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM face_signatures WHERE student_id = ANY($1)`,
		studentIDs,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count signatures: %w", err)
	}

	return count, nil
}

// Delete removes a student's signature.
func (r *SignatureRepository) Delete(ctx context.Context, studentID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM face_signatures WHERE student_id = $1`,
		studentID,
	)
	if err != nil {
		return fmt.Errorf("delete signature: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSignatureNotFound
	}

	return nil
}

var _ SignatureRepositoryInterface = (*SignatureRepository)(nil)
