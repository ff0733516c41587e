package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lousa-digital/chamada/internal/domain"
)

// RecognizerService interface for the recognition engine
type RecognizerService interface {
	Recognize(ctx context.Context, sectionID string, frame []byte) (*domain.RecognitionResult, error)
}

// RecognizeHandler handles live-frame recognition requests
type RecognizeHandler struct {
	recognizer RecognizerService
	logger     *slog.Logger
}

func NewRecognizeHandler(recognizer RecognizerService, logger *slog.Logger) *RecognizeHandler {
	return &RecognizeHandler{
		recognizer: recognizer,
		logger:     logger,
	}
}

// RecognizeResponse response for the recognize endpoint
type RecognizeResponse struct {
	SectionID     string                 `json:"section_id"`
	ClassID       string                 `json:"class_id,omitempty"`
	FacesDetected int                    `json:"faces_detected"`
	ModelTrained  bool                   `json:"model_trained"`
	Recognized    []domain.Match         `json:"recognized"`
	Unrecognized  []domain.UnmatchedFace `json:"unrecognized"`
	LatencyMs     int64                  `json:"latency_ms"`
}

// Recognize POST /v1/recognize - match one camera frame against a
// section's trained index
func (h *RecognizeHandler) Recognize(c *fiber.Ctx) error {
	sectionID := strings.TrimSpace(c.FormValue("section_id"))
	if sectionID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("section_id is required"))
	}

	// class_id is echoed back so the platform can correlate the frame
	// with the session it belongs to; the engine does not store it.
	classID := strings.TrimSpace(c.FormValue("class_id"))

	file, err := c.FormFile("image")
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}

	frame, err := readImageFile(file)
	if err != nil {
		return fmt.Errorf("recognize: %w", err)
	}

	result, err := h.recognizer.Recognize(c.Context(), sectionID, frame)
	if err != nil {
		return err
	}

	h.logger.Info("frame recognized",
		"section_id", sectionID,
		"faces_detected", result.FacesDetected,
		"recognized", len(result.Recognized),
		"model_trained", result.ModelTrained,
		"latency_ms", result.LatencyMs,
	)

	return c.JSON(RecognizeResponse{
		SectionID:     sectionID,
		ClassID:       classID,
		FacesDetected: result.FacesDetected,
		ModelTrained:  result.ModelTrained,
		Recognized:    result.Recognized,
		Unrecognized:  result.Unrecognized,
		LatencyMs:     result.LatencyMs,
	})
}
