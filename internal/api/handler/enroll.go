package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/engine"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// TrainerService interface for the enrollment engine
type TrainerService interface {
	EnrollSingle(ctx context.Context, req *engine.EnrollmentRequest) (*domain.EnrollmentResult, []domain.ImageProblem, error)
	EnrollBulk(ctx context.Context, req *engine.BulkRequest) (*domain.BulkEnrollmentResult, error)
	Unenroll(ctx context.Context, studentID string) error
}

// EnrollHandler handles face enrollment requests
type EnrollHandler struct {
	trainer TrainerService
	logger  *slog.Logger
}

func NewEnrollHandler(trainer TrainerService, logger *slog.Logger) *EnrollHandler {
	return &EnrollHandler{
		trainer: trainer,
		logger:  logger,
	}
}

// EnrollResponse response for single enrollment
type EnrollResponse struct {
	StudentID       string    `json:"student_id"`
	SignatureRef    uuid.UUID `json:"signature_ref"`
	ImageCount      int       `json:"image_count"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// EnrollErrorResponse carries per-image diagnostics when an enrollment
// set is rejected, so the platform can tell the teacher which captures
// to redo.
type EnrollErrorResponse struct {
	Code     string                `json:"code"`
	Message  string                `json:"message"`
	Problems []domain.ImageProblem `json:"problems,omitempty"`
}

// Enroll POST /v1/enroll - build a student's face signature
func (h *EnrollHandler) Enroll(c *fiber.Ctx) error {
	studentID := strings.TrimSpace(c.FormValue("student_id"))
	if studentID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("student_id is required"))
	}

	overwrite := c.FormValue("overwrite") == "true"

	images, err := extractImageSet(c, "images")
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}

	result, problems, err := h.trainer.EnrollSingle(c.Context(), &engine.EnrollmentRequest{
		StudentID: studentID,
		Overwrite: overwrite,
		Images:    images,
	})
	if err != nil {
		if len(problems) > 0 {
			var appErr *domain.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.StatusCode).JSON(EnrollErrorResponse{
					Code:     appErr.Code,
					Message:  appErr.Message,
					Problems: problems,
				})
			}
		}
		return err
	}

	h.logger.Info("student enrolled",
		"student_id", result.StudentID,
		"image_count", result.ImageCount,
		"confidence", result.ConfidenceScore,
	)

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		StudentID:       result.StudentID,
		SignatureRef:    result.SignatureRef,
		ImageCount:      result.ImageCount,
		ConfidenceScore: result.ConfidenceScore,
	})
}

// EnrollBulk POST /v1/enroll/bulk - enroll a whole section from one
// image per student. Items fail independently; the response lists the
// per-student outcomes.
func (h *EnrollHandler) EnrollBulk(c *fiber.Ctx) error {
	sectionID := strings.TrimSpace(c.FormValue("section_id"))
	if sectionID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("section_id is required"))
	}

	overwrite := c.FormValue("overwrite") == "true"

	studentsJSON := c.FormValue("students")
	if studentsJSON == "" {
		return domain.ErrValidationFailed.WithError(errors.New("students is required"))
	}

	var students []domain.BulkStudent
	if err := json.Unmarshal([]byte(studentsJSON), &students); err != nil {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("students must be a JSON array: %w", err))
	}
	if len(students) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("students must not be empty"))
	}

	images, err := extractSerialImages(c)
	if err != nil {
		return fmt.Errorf("enroll bulk: %w", err)
	}

	result, err := h.trainer.EnrollBulk(c.Context(), &engine.BulkRequest{
		SectionID: sectionID,
		Overwrite: overwrite,
		Students:  students,
		Images:    images,
	})
	if err != nil {
		return err
	}

	h.logger.Info("bulk enrollment completed",
		"section_id", result.SectionID,
		"total", result.Total,
		"trained", result.Trained,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)

	return c.JSON(result)
}

// Unenroll DELETE /v1/enroll/:student_id - remove a student's stored
// signature
func (h *EnrollHandler) Unenroll(c *fiber.Ctx) error {
	studentID := strings.TrimSpace(c.Params("student_id"))
	if studentID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("student_id is required"))
	}

	if err := h.trainer.Unenroll(c.Context(), studentID); err != nil {
		return err
	}

	h.logger.Info("student unenrolled", "student_id", studentID)

	return c.SendStatus(fiber.StatusNoContent)
}

// extractImageSet reads all files uploaded under the given field name,
// in upload order.
func extractImageSet(c *fiber.Ctx, field string) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	files := form.File[field]
	if len(files) == 0 {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("%s is required", field))
	}

	images := make([][]byte, 0, len(files))
	for _, file := range files {
		data, err := readImageFile(file)
		if err != nil {
			return nil, err
		}
		images = append(images, data)
	}

	return images, nil
}

// extractSerialImages reads bulk enrollment files keyed image_<serial_no>.
func extractSerialImages(c *fiber.Ctx) (map[int][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	images := make(map[int][]byte)
	for field, files := range form.File {
		if !strings.HasPrefix(field, "image_") || len(files) == 0 {
			continue
		}

		serial, err := strconv.Atoi(strings.TrimPrefix(field, "image_"))
		if err != nil {
			return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("invalid image field %q", field))
		}

		data, err := readImageFile(files[0])
		if err != nil {
			return nil, err
		}
		images[serial] = data
	}

	if len(images) == 0 {
		return nil, domain.ErrValidationFailed.WithError(errors.New("no image_<serial_no> files supplied"))
	}

	return images, nil
}

// readImageFile validates and reads one uploaded image.
func readImageFile(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > maxImageSize || file.Size == 0 {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("file %s has invalid size %d", file.Filename, file.Size))
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrDecodeFailed.WithError(fmt.Errorf("unsupported content type %q", contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrDecodeFailed.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrDecodeFailed.WithError(err)
	}

	return data, nil
}
