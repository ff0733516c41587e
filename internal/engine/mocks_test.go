package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/provider"
)

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) Insert(ctx context.Context, sig *domain.FaceSignature) error {
	args := m.Called(ctx, sig)
	return args.Error(0)
}

func (m *MockSignatureRepository) Upsert(ctx context.Context, sig *domain.FaceSignature) error {
	args := m.Called(ctx, sig)
	return args.Error(0)
}

func (m *MockSignatureRepository) GetByStudentID(ctx context.Context, studentID string) (*domain.FaceSignature, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceSignature), args.Error(1)
}

func (m *MockSignatureRepository) ListByStudentIDs(ctx context.Context, studentIDs []string) ([]domain.FaceSignature, error) {
	args := m.Called(ctx, studentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FaceSignature), args.Error(1)
}

func (m *MockSignatureRepository) CountByStudentIDs(ctx context.Context, studentIDs []string) (int, error) {
	args := m.Called(ctx, studentIDs)
	return args.Int(0), args.Error(1)
}

func (m *MockSignatureRepository) Delete(ctx context.Context, studentID string) error {
	args := m.Called(ctx, studentID)
	return args.Error(0)
}

type MockRosterRepository struct {
	mock.Mock
}

func (m *MockRosterRepository) ListSection(ctx context.Context, sectionID string) ([]domain.Student, error) {
	args := m.Called(ctx, sectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockRosterRepository) GetByRollNumber(ctx context.Context, sectionID, rollNumber string) (*domain.Student, error) {
	args := m.Called(ctx, sectionID, rollNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockRosterRepository) MarkFaceRegistered(ctx context.Context, studentID string) error {
	args := m.Called(ctx, studentID)
	return args.Error(0)
}

func (m *MockRosterRepository) ClearFaceRegistered(ctx context.Context, studentID string) error {
	args := m.Called(ctx, studentID)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, audit *domain.RecognitionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) EncodeFace(ctx context.Context, faceCrop []byte) ([]float64, error) {
	args := m.Called(ctx, faceCrop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *MockEncoder) Dimensions() int {
	args := m.Called()
	return args.Int(0)
}

// testJPEG renders a small valid JPEG for pipeline tests. The pixel
// content is irrelevant; detection and encoding are mocked.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// basisEmbedding returns a 512-dim unit vector with a single 1 at axis.
func basisEmbedding(axis int) []float64 {
	emb := make([]float64, 512)
	emb[axis] = 1.0
	return emb
}

// mixEmbedding returns a unit vector whose cosine similarity to
// basisEmbedding(axis) is exactly sim, using a disjoint residual axis.
func mixEmbedding(axis, residualAxis int, sim float64) []float64 {
	emb := make([]float64, 512)
	emb[axis] = sim
	emb[residualAxis] = math.Sqrt(1.0 - sim*sim)
	return emb
}
