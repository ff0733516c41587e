package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lousa-digital/chamada/internal/domain"
)

// RosterRepository reads section membership from the platform's student
// table. The engine does not own these rows; the only writes it
// performs are flipping face_registered on enrollment and unenrollment.
type RosterRepository struct {
	pool PgxPool
}

func NewRosterRepository(pool PgxPool) *RosterRepository {
	return &RosterRepository{pool: pool}
}

func (r *RosterRepository) ListSection(ctx context.Context, sectionID string) ([]domain.Student, error) {
	query := `
		SELECT id, section_id, roll_number, name, face_registered
		FROM students
		WHERE section_id = $1
		ORDER BY roll_number
	`

	rows, err := r.pool.Query(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list section %s: %w", sectionID, err)
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.SectionID, &s.RollNumber, &s.Name, &s.FaceRegistered); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

func (r *RosterRepository) GetByRollNumber(ctx context.Context, sectionID, rollNumber string) (*domain.Student, error) {
	query := `
		SELECT id, section_id, roll_number, name, face_registered
		FROM students
		WHERE section_id = $1 AND roll_number = $2
	`

	var s domain.Student
	err := r.pool.QueryRow(ctx, query, sectionID, rollNumber).Scan(
		&s.ID,
		&s.SectionID,
		&s.RollNumber,
		&s.Name,
		&s.FaceRegistered,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student by roll number: %w", err)
	}

	return &s, nil
}

func (r *RosterRepository) MarkFaceRegistered(ctx context.Context, studentID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE students SET face_registered = TRUE, updated_at = NOW() WHERE id = $1`,
		studentID,
	)
	if err != nil {
		return fmt.Errorf("mark face registered: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}

	return nil
}

func (r *RosterRepository) ClearFaceRegistered(ctx context.Context, studentID string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE students SET face_registered = FALSE, updated_at = NOW() WHERE id = $1`,
		studentID,
	)
	if err != nil {
		return fmt.Errorf("clear face registered: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrStudentNotFound
	}

	return nil
}

var _ RosterRepositoryInterface = (*RosterRepository)(nil)
