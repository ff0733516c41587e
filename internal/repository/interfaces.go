package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lousa-digital/chamada/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories need. pgxmock
// satisfies it, which keeps repository tests off a live database.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// SignatureRepositoryInterface defines the embedding store: durable,
// keyed persistence of per-student face signatures.
type SignatureRepositoryInterface interface {
	Insert(ctx context.Context, sig *domain.FaceSignature) error
	Upsert(ctx context.Context, sig *domain.FaceSignature) error
	GetByStudentID(ctx context.Context, studentID string) (*domain.FaceSignature, error)
	ListByStudentIDs(ctx context.Context, studentIDs []string) ([]domain.FaceSignature, error)
	CountByStudentIDs(ctx context.Context, studentIDs []string) (int, error)
	Delete(ctx context.Context, studentID string) error
}

// RosterRepositoryInterface is the narrow surface to the attendance
// platform's relational datastore: section membership, display data
// and the face_registered flag. The engine never owns these rows.
type RosterRepositoryInterface interface {
	ListSection(ctx context.Context, sectionID string) ([]domain.Student, error)
	GetByRollNumber(ctx context.Context, sectionID, rollNumber string) (*domain.Student, error)
	MarkFaceRegistered(ctx context.Context, studentID string) error
	ClearFaceRegistered(ctx context.Context, studentID string) error
}

// RecognitionAuditRepositoryInterface records per-recognize-call
// diagnostics.
type RecognitionAuditRepositoryInterface interface {
	Create(ctx context.Context, audit *domain.RecognitionAudit) error
}
