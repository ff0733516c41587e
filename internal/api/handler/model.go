package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/lousa-digital/chamada/internal/domain"
)

// LifecycleService interface for the model lifecycle
type LifecycleService interface {
	Train(ctx context.Context, sectionID string) (*domain.ModelInfo, error)
	Status(ctx context.Context, sectionID string) (*domain.ModelStatus, error)
	Drop(sectionID string)
}

// ModelHandler handles section model lifecycle requests
type ModelHandler struct {
	lifecycle LifecycleService
	logger    *slog.Logger
}

func NewModelHandler(lifecycle LifecycleService, logger *slog.Logger) *ModelHandler {
	return &ModelHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// TrainRequest request body for the train endpoint
type TrainRequest struct {
	SectionID string `json:"section_id"`
}

// TrainResponse response for the train endpoint
type TrainResponse struct {
	ModelID       uuid.UUID `json:"model_id"`
	SectionID     string    `json:"section_id"`
	StudentsCount int       `json:"students_count"`
	Generation    uint64    `json:"generation"`
	BuiltAt       string    `json:"built_at"`
}

// Train POST /v1/model/train - rebuild a section's index from the
// stored signatures
func (h *ModelHandler) Train(c *fiber.Ctx) error {
	var req TrainRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	req.SectionID = strings.TrimSpace(req.SectionID)
	if req.SectionID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("section_id is required"))
	}

	info, err := h.lifecycle.Train(c.Context(), req.SectionID)
	if err != nil {
		return err
	}

	h.logger.Info("model trained",
		"section_id", info.SectionID,
		"model_id", info.ModelID,
		"students_count", info.StudentsCount,
		"generation", info.Generation,
	)

	return c.JSON(TrainResponse{
		ModelID:       info.ModelID,
		SectionID:     info.SectionID,
		StudentsCount: info.StudentsCount,
		Generation:    info.Generation,
		BuiltAt:       info.BuiltAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

// Status GET /v1/model/status/:section_id - report training state
func (h *ModelHandler) Status(c *fiber.Ctx) error {
	sectionID := strings.TrimSpace(c.Params("section_id"))
	if sectionID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("section_id is required"))
	}

	status, err := h.lifecycle.Status(c.Context(), sectionID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// Drop DELETE /v1/model/:section_id - discard a section's in-memory
// index; the next recognize or train rebuilds it from storage
func (h *ModelHandler) Drop(c *fiber.Ctx) error {
	sectionID := strings.TrimSpace(c.Params("section_id"))
	if sectionID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("section_id is required"))
	}

	h.lifecycle.Drop(sectionID)

	h.logger.Info("model dropped", "section_id", sectionID)

	return c.SendStatus(fiber.StatusNoContent)
}
