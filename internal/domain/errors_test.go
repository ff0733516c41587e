package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  ErrFaceNotDetected,
			want: "No face detected in the image",
		},
		{
			name: "with wrapped error",
			err:  ErrDecodeFailed.WithError(errors.New("unexpected EOF")),
			want: "Image is corrupt, unsupported or outside the allowed size: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := ErrEncodingFailed.WithError(inner)

	assert.ErrorIs(t, err, inner)
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	derived := ErrLowQuality.WithMessage("consistency 0.31 below floor 0.40")

	assert.ErrorIs(t, derived, ErrLowQuality)
	assert.NotErrorIs(t, derived, ErrFaceNotDetected)
}

func TestAppError_Is_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("enroll student 42: %w", ErrMultipleFaces)

	var appErr *AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "multiple_faces", appErr.Code)
	assert.ErrorIs(t, err, ErrMultipleFaces)
}

func TestAppError_WithError_DoesNotMutateSentinel(t *testing.T) {
	derived := ErrAlreadyRegistered.WithError(errors.New("row exists"))

	assert.Nil(t, ErrAlreadyRegistered.Err)
	assert.NotNil(t, derived.Err)
	assert.Equal(t, ErrAlreadyRegistered.Code, derived.Code)
	assert.Equal(t, ErrAlreadyRegistered.StatusCode, derived.StatusCode)
}
