package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lousa-digital/chamada/internal/domain"
)

func testEmbedding(dims int) []float64 {
	emb := make([]float64, dims)
	for i := range emb {
		emb[i] = float64(i%7) * 0.1
	}
	return emb
}

// SignatureRepository tests

func TestSignatureRepository_Upsert(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		sig       *domain.FaceSignature
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "successful upsert",
			sig: &domain.FaceSignature{
				StudentID:   "stu-001",
				Embedding:   testEmbedding(512),
				ImageCount:  5,
				Consistency: 0.91,
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"created_at", "updated_at"}).
					AddRow(now, now)

				mock.ExpectQuery(`INSERT INTO face_signatures \(id, student_id, embedding, image_count, consistency, created_at, updated_at\)`).
					WithArgs(pgxmock.AnyArg(), "stu-001", pgxmock.AnyArg(), 5, 0.91).
					WillReturnRows(rows)
			},
			wantErr: false,
		},
		{
			name: "database error",
			sig: &domain.FaceSignature{
				StudentID:   "stu-002",
				Embedding:   testEmbedding(512),
				ImageCount:  6,
				Consistency: 0.85,
			},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO face_signatures`).
					WithArgs(pgxmock.AnyArg(), "stu-002", pgxmock.AnyArg(), 6, 0.85).
					WillReturnError(errors.New("database connection error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewSignatureRepository(mock)
			err = repo.Upsert(context.Background(), tt.sig)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "upsert signature")
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, tt.sig.Ref)
				assert.Equal(t, now, tt.sig.CreatedAt)
				assert.Equal(t, now, tt.sig.UpdatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSignatureRepository_Insert(t *testing.T) {
	now := time.Now()

	t.Run("successful insert", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(now, now)
		mock.ExpectQuery(`INSERT INTO face_signatures \(id, student_id, embedding, image_count, consistency, created_at, updated_at\)`).
			WithArgs(pgxmock.AnyArg(), "stu-001", pgxmock.AnyArg(), 5, 0.91).
			WillReturnRows(rows)

		sig := &domain.FaceSignature{
			StudentID:   "stu-001",
			Embedding:   testEmbedding(512),
			ImageCount:  5,
			Consistency: 0.91,
		}

		repo := NewSignatureRepository(mock)
		require.NoError(t, repo.Insert(context.Background(), sig))
		assert.NotEqual(t, uuid.Nil, sig.Ref)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to already_registered", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO face_signatures`).
			WithArgs(pgxmock.AnyArg(), "stu-001", pgxmock.AnyArg(), 5, 0.91).
			WillReturnError(errors.New(`duplicate key value violates unique constraint "face_signatures_student_id_key" (SQLSTATE 23505)`))

		sig := &domain.FaceSignature{
			StudentID:   "stu-001",
			Embedding:   testEmbedding(512),
			ImageCount:  5,
			Consistency: 0.91,
		}

		repo := NewSignatureRepository(mock)
		err = repo.Insert(context.Background(), sig)
		assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignatureRepository_GetByStudentID(t *testing.T) {
	sigID := uuid.New()
	now := time.Now()
	embedding := testEmbedding(512)

	tests := []struct {
		name      string
		studentID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.FaceSignature
		wantErr   error
	}{
		{
			name:      "successful retrieval",
			studentID: "stu-001",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{
					"id", "student_id", "embedding", "image_count", "consistency", "created_at", "updated_at",
				}).AddRow(
					sigID,
					"stu-001",
					toVector(embedding),
					5,
					0.91,
					now,
					now,
				)

				mock.ExpectQuery(`SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at FROM face_signatures WHERE student_id = \$1`).
					WithArgs("stu-001").
					WillReturnRows(rows)
			},
			want: &domain.FaceSignature{
				Ref:         sigID,
				StudentID:   "stu-001",
				ImageCount:  5,
				Consistency: 0.91,
			},
		},
		{
			name:      "signature not found",
			studentID: "stu-missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at FROM face_signatures WHERE student_id = \$1`).
					WithArgs("stu-missing").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrSignatureNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewSignatureRepository(mock)
			got, err := repo.GetByStudentID(context.Background(), tt.studentID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.want.Ref, got.Ref)
				assert.Equal(t, tt.want.StudentID, got.StudentID)
				assert.Equal(t, tt.want.ImageCount, got.ImageCount)
				assert.Equal(t, tt.want.Consistency, got.Consistency)
				assert.InDeltaSlice(t, embedding, got.Embedding, 1e-6)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSignatureRepository_ListByStudentIDs(t *testing.T) {
	now := time.Now()
	embA := testEmbedding(512)

	t.Run("empty input short-circuits", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewSignatureRepository(mock)
		sigs, err := repo.ListByStudentIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, sigs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns only students with signatures", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{
			"id", "student_id", "embedding", "image_count", "consistency", "created_at", "updated_at",
		}).AddRow(uuid.New(), "stu-001", toVector(embA), 5, 0.9, now, now)

		mock.ExpectQuery(`SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at FROM face_signatures WHERE student_id = ANY\(\$1\)`).
			WithArgs([]string{"stu-001", "stu-002"}).
			WillReturnRows(rows)

		repo := NewSignatureRepository(mock)
		sigs, err := repo.ListByStudentIDs(context.Background(), []string{"stu-001", "stu-002"})

		require.NoError(t, err)
		require.Len(t, sigs, 1)
		assert.Equal(t, "stu-001", sigs[0].StudentID)
		assert.Len(t, sigs[0].Embedding, 512)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, student_id, embedding, image_count, consistency, created_at, updated_at FROM face_signatures WHERE student_id = ANY\(\$1\)`).
			WithArgs([]string{"stu-001"}).
			WillReturnError(errors.New("database connection error"))

		repo := NewSignatureRepository(mock)
		_, err = repo.ListByStudentIDs(context.Background(), []string{"stu-001"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "list signatures")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignatureRepository_CountByStudentIDs(t *testing.T) {
	t.Run("empty input short-circuits", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewSignatureRepository(mock)
		count, err := repo.CountByStudentIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("counts enrolled students", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM face_signatures WHERE student_id = ANY\(\$1\)`).
			WithArgs([]string{"stu-001", "stu-002", "stu-003"}).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

		repo := NewSignatureRepository(mock)
		count, err := repo.CountByStudentIDs(context.Background(), []string{"stu-001", "stu-002", "stu-003"})

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignatureRepository_Delete(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful delete",
			studentID: "stu-001",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM face_signatures WHERE student_id = \$1`).
					WithArgs("stu-001").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name:      "signature not found",
			studentID: "stu-missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM face_signatures WHERE student_id = \$1`).
					WithArgs("stu-missing").
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: domain.ErrSignatureNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewSignatureRepository(mock)
			err = repo.Delete(context.Background(), tt.studentID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// RosterRepository tests

func TestRosterRepository_ListSection(t *testing.T) {
	t.Run("returns section roster in roll order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "section_id", "roll_number", "name", "face_registered"}).
			AddRow("stu-001", "sec-7a", "01", "Ana Souza", true).
			AddRow("stu-002", "sec-7a", "02", "Bruno Lima", false)

		mock.ExpectQuery(`SELECT id, section_id, roll_number, name, face_registered FROM students WHERE section_id = \$1 ORDER BY roll_number`).
			WithArgs("sec-7a").
			WillReturnRows(rows)

		repo := NewRosterRepository(mock)
		students, err := repo.ListSection(context.Background(), "sec-7a")

		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, "stu-001", students[0].ID)
		assert.True(t, students[0].FaceRegistered)
		assert.Equal(t, "Bruno Lima", students[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty section", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, section_id, roll_number, name, face_registered FROM students WHERE section_id = \$1 ORDER BY roll_number`).
			WithArgs("sec-empty").
			WillReturnRows(pgxmock.NewRows([]string{"id", "section_id", "roll_number", "name", "face_registered"}))

		repo := NewRosterRepository(mock)
		students, err := repo.ListSection(context.Background(), "sec-empty")

		require.NoError(t, err)
		assert.Empty(t, students)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRosterRepository_GetByRollNumber(t *testing.T) {
	tests := []struct {
		name       string
		rollNumber string
		mockSetup  func(mock pgxmock.PgxPoolIface)
		want       *domain.Student
		wantErr    error
	}{
		{
			name:       "successful retrieval",
			rollNumber: "07",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "section_id", "roll_number", "name", "face_registered"}).
					AddRow("stu-007", "sec-7a", "07", "Carla Dias", false)

				mock.ExpectQuery(`SELECT id, section_id, roll_number, name, face_registered FROM students WHERE section_id = \$1 AND roll_number = \$2`).
					WithArgs("sec-7a", "07").
					WillReturnRows(rows)
			},
			want: &domain.Student{
				ID:         "stu-007",
				SectionID:  "sec-7a",
				RollNumber: "07",
				Name:       "Carla Dias",
			},
		},
		{
			name:       "student not found",
			rollNumber: "99",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, section_id, roll_number, name, face_registered FROM students WHERE section_id = \$1 AND roll_number = \$2`).
					WithArgs("sec-7a", "99").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrStudentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewRosterRepository(mock)
			got, err := repo.GetByRollNumber(context.Background(), "sec-7a", tt.rollNumber)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, tt.want.ID, got.ID)
				assert.Equal(t, tt.want.Name, got.Name)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRosterRepository_MarkFaceRegistered(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful update",
			studentID: "stu-001",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE students SET face_registered = TRUE, updated_at = NOW\(\) WHERE id = \$1`).
					WithArgs("stu-001").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name:      "unknown student",
			studentID: "stu-missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE students SET face_registered = TRUE, updated_at = NOW\(\) WHERE id = \$1`).
					WithArgs("stu-missing").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrStudentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewRosterRepository(mock)
			err = repo.MarkFaceRegistered(context.Background(), tt.studentID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRosterRepository_ClearFaceRegistered(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful update",
			studentID: "stu-001",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE students SET face_registered = FALSE, updated_at = NOW\(\) WHERE id = \$1`).
					WithArgs("stu-001").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name:      "unknown student",
			studentID: "stu-missing",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE students SET face_registered = FALSE, updated_at = NOW\(\) WHERE id = \$1`).
					WithArgs("stu-missing").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrStudentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewRosterRepository(mock)
			err = repo.ClearFaceRegistered(context.Background(), tt.studentID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// RecognitionAuditRepository tests

func TestRecognitionAuditRepository_Create(t *testing.T) {
	now := time.Now()
	topSim := 0.92

	t.Run("successful insert", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO recognition_audits \(id, section_id, faces_detected, recognized_count, top_similarity, model_generation, latency_ms, created_at\)`).
			WithArgs(pgxmock.AnyArg(), "sec-7a", 4, 3, &topSim, uint64(2), int64(180)).
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

		repo := NewRecognitionAuditRepository(mock)
		audit := &domain.RecognitionAudit{
			SectionID:       "sec-7a",
			FacesDetected:   4,
			RecognizedCount: 3,
			TopSimilarity:   &topSim,
			ModelGeneration: 2,
			LatencyMs:       180,
		}

		err = repo.Create(context.Background(), audit)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, audit.ID)
		assert.Equal(t, now, audit.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`INSERT INTO recognition_audits`).
			WithArgs(pgxmock.AnyArg(), "sec-7a", 0, 0, (*float64)(nil), uint64(0), int64(12)).
			WillReturnError(errors.New("database connection error"))

		repo := NewRecognitionAuditRepository(mock)
		err = repo.Create(context.Background(), &domain.RecognitionAudit{
			SectionID: "sec-7a",
			LatencyMs: 12,
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "create recognition audit")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"pgconn unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"pgconn other code", &pgconn.PgError{Code: "23503"}, false},
		{"sqlstate code in message", errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"), true},
		{"plain unique", errors.New("UNIQUE constraint failed"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
