package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lousa-digital/chamada/internal/domain"
)

// MockLifecycleService is a mock implementation of LifecycleService
type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) Train(ctx context.Context, sectionID string) (*domain.ModelInfo, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelInfo), args.Error(1)
}

func (m *MockLifecycleService) Status(ctx context.Context, sectionID string) (*domain.ModelStatus, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelStatus), args.Error(1)
}

func (m *MockLifecycleService) Drop(sectionID string) {
	m.Called(sectionID)
}

func TestModelHandler_Train(t *testing.T) {
	modelID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockLifecycleService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "successful training",
			body: `{"section_id":"sec-7a"}`,
			setupMock: func(m *MockLifecycleService) {
				m.On("Train", mock.Anything, "sec-7a").Return(&domain.ModelInfo{
					ModelID:       modelID,
					SectionID:     "sec-7a",
					StudentsCount: 28,
					Generation:    3,
					BuiltAt:       time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
				}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp TrainResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, modelID, resp.ModelID)
				assert.Equal(t, "sec-7a", resp.SectionID)
				assert.Equal(t, 28, resp.StudentsCount)
				assert.Equal(t, uint64(3), resp.Generation)
				assert.Equal(t, "2026-02-10T08:30:00Z", resp.BuiltAt)
			},
		},
		{
			name:           "missing section_id",
			body:           `{}`,
			setupMock:      func(m *MockLifecycleService) {},
			expectedStatus: 422,
		},
		{
			name:           "malformed body",
			body:           `{`,
			setupMock:      func(m *MockLifecycleService) {},
			expectedStatus: 400,
		},
		{
			name: "section without signatures",
			body: `{"section_id":"sec-empty"}`,
			setupMock: func(m *MockLifecycleService) {
				m.On("Train", mock.Anything, "sec-empty").Return(nil, domain.ErrNoStudents)
			},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLifecycle := &MockLifecycleService{}
			tt.setupMock(mockLifecycle)

			handler := NewModelHandler(mockLifecycle, testLogger())
			app := newTestApp()
			app.Post("/v1/model/train", handler.Train)

			req := httptest.NewRequest("POST", "/v1/model/train", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockLifecycle.AssertExpectations(t)
		})
	}
}

func TestModelHandler_Status(t *testing.T) {
	trainedAt := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

	mockLifecycle := &MockLifecycleService{}
	mockLifecycle.On("Status", mock.Anything, "sec-7a").Return(&domain.ModelStatus{
		SectionID:            "sec-7a",
		IsTrained:            true,
		LastTrainedAt:        &trainedAt,
		StudentsCount:        30,
		TrainedStudentsCount: 28,
	}, nil)

	handler := NewModelHandler(mockLifecycle, testLogger())
	app := newTestApp()
	app.Get("/v1/model/status/:section_id", handler.Status)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/model/status/sec-7a", nil))
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var status domain.ModelStatus
	respBody, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(respBody, &status))
	assert.True(t, status.IsTrained)
	assert.Equal(t, 30, status.StudentsCount)
	assert.Equal(t, 28, status.TrainedStudentsCount)

	mockLifecycle.AssertExpectations(t)
}

func TestModelHandler_Drop(t *testing.T) {
	mockLifecycle := &MockLifecycleService{}
	mockLifecycle.On("Drop", "sec-7a").Return()

	handler := NewModelHandler(mockLifecycle, testLogger())
	app := newTestApp()
	app.Delete("/v1/model/:section_id", handler.Drop)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/model/sec-7a", nil))
	assert.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	mockLifecycle.AssertExpectations(t)
}
