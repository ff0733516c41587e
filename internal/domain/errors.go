package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy carrying a more specific message, keeping
// the code and status so callers can still match on the sentinel.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    message,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Is makes errors.Is match any AppError with the same code, so values
// derived via WithError/WithMessage still compare equal to the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Pre-defined errors. Codes follow the wire contract consumed by the
// attendance platform and must not be renamed.
var (
	ErrInternal = &AppError{
		Code:       "internal_error",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "bad_request",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "unauthorized",
		Message:    "Invalid or missing service key",
		StatusCode: 401,
	}

	ErrValidationFailed = &AppError{
		Code:       "validation_failed",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrDecodeFailed = &AppError{
		Code:       "decode_error",
		Message:    "Image is corrupt, unsupported or outside the allowed size",
		StatusCode: 422,
	}

	ErrFaceNotDetected = &AppError{
		Code:       "face_not_detected",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "multiple_faces",
		Message:    "Multiple faces detected, enrollment images must contain a single face",
		StatusCode: 422,
	}

	ErrLowQuality = &AppError{
		Code:       "low_quality",
		Message:    "Enrollment images disagree too much, recapture the full set",
		StatusCode: 422,
	}

	ErrAlreadyRegistered = &AppError{
		Code:       "already_registered",
		Message:    "A face signature already exists for this student",
		StatusCode: 409,
	}

	ErrEncodingFailed = &AppError{
		Code:       "encoding_failed",
		Message:    "Face embedding could not be computed",
		StatusCode: 502,
	}

	ErrTrainingFailed = &AppError{
		Code:       "training_failed",
		Message:    "Enrollment failed due to an internal error",
		StatusCode: 500,
	}

	ErrSignatureNotFound = &AppError{
		Code:       "signature_not_found",
		Message:    "No face signature on record for this student",
		StatusCode: 404,
	}

	ErrStudentNotFound = &AppError{
		Code:       "student_not_found",
		Message:    "Student not found in roster",
		StatusCode: 404,
	}

	ErrEmptyIndex = &AppError{
		Code:       "model_not_trained",
		Message:    "No trained model for this section, train the model first",
		StatusCode: 409,
	}

	ErrNoStudents = &AppError{
		Code:       "no_students",
		Message:    "Section has no enrolled face signatures to train on",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "rate_limit_exceeded",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)
