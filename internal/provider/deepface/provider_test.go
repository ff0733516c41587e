package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewProvider(Config{
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		RetryCount: 1,
	})
}

func TestProvider_DetectFaces(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)

		var req ExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Img)
		assert.Equal(t, "retinaface", req.Detector)

		resp := ExtractResponse{Results: []ExtractResult{
			{FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 120}, Confidence: 0.97},
			{FacialArea: FacialArea{X: 200, Y: 30, W: 90, H: 110}, Confidence: 0.88},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	faces, err := p.DetectFaces(context.Background(), []byte("fake-image-bytes"))
	require.NoError(t, err)
	require.Len(t, faces, 2)
	assert.Equal(t, 10, faces[0].BoundingBox.X)
	assert.Equal(t, 120, faces[0].BoundingBox.Height)
	assert.InDelta(t, 0.97, faces[0].Confidence, 1e-9)
}

func TestProvider_DetectFaces_NoFaces(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(ExtractResponse{}))
	})

	faces, err := p.DetectFaces(context.Background(), []byte("fake-image-bytes"))
	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestProvider_EncodeFace(t *testing.T) {
	embedding := make([]float64, 512)
	embedding[0] = 1

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/represent", r.URL.Path)

		var req RepresentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "skip", req.Detector, "pre-cropped faces must not be re-detected")

		resp := RepresentResponse{Results: []RepresentResult{{Embedding: embedding}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	got, err := p.EncodeFace(context.Background(), []byte("fake-crop"))
	require.NoError(t, err)
	assert.Equal(t, embedding, got)
}

func TestProvider_EncodeFace_EmptyResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(RepresentResponse{}))
	})

	_, err := p.EncodeFace(context.Background(), []byte("fake-crop"))
	assert.ErrorIs(t, err, ErrNoFaceInResponse)
}

func TestProvider_EncodeFace_ServerErrorRetriesThenFails(t *testing.T) {
	var calls int
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := p.EncodeFace(context.Background(), []byte("fake-crop"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSidecarUnavailable)
	assert.Equal(t, 2, calls, "one retry after the initial attempt")
}

func TestProvider_EncodeFace_ClientErrorNotRetried(t *testing.T) {
	var calls int
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad image", http.StatusBadRequest)
	})

	_, err := p.EncodeFace(context.Background(), []byte("fake-crop"))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestProvider_Dimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"Facenet512", 512},
		{"Facenet", 128},
		{"SFace", 128},
		{"unknown-model", 512},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p := NewProvider(Config{BaseURL: "http://localhost:1", Model: tt.model})
			assert.Equal(t, tt.want, p.Dimensions())
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, calculateBackoff(0))
	assert.Equal(t, time.Second, calculateBackoff(1))
	assert.Equal(t, 2*time.Second, calculateBackoff(2))
	assert.Equal(t, 4*time.Second, calculateBackoff(3))
}
