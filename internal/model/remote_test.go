package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancer-diagnosis/internal/diagnosis"
)

func TestRemoteModel(t *testing.T) {
	var gotPath string
	var gotFeatures []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotFeatures = req.Features
		json.NewEncoder(w).Encode(predictResponse{Label: 1, Probabilities: []float64{0.38, 0.62}})
	}))
	defer srv.Close()

	repo := NewRemoteRepository(srv.URL+"/", time.Second)
	m, err := repo.Load(context.Background(), diagnosis.SkinCancer)
	require.NoError(t, err)

	vec := diagnosis.FeatureVector{0, 1, 0, 0, 1, 40}
	class, err := m.Predict(context.Background(), vec)
	require.NoError(t, err)
	assert.Equal(t, 1, class)

	proba, err := m.PredictProba(context.Background(), vec)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.38, 0.62}, proba)

	assert.Equal(t, "/predict/Skin_Cancer", gotPath)
	assert.Equal(t, []float64(vec), gotFeatures)
}

func TestRemoteModelOneCallPerFeatureVector(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		p := 0.2 * float64(n)
		json.NewEncoder(w).Encode(predictResponse{Label: int(n % 2), Probabilities: []float64{1 - p, p}})
	}))
	defer srv.Close()

	m, err := NewRemoteRepository(srv.URL, time.Second).Load(context.Background(), diagnosis.SkinCancer)
	require.NoError(t, err)

	vec := diagnosis.FeatureVector{0, 1, 0, 0, 1, 40}
	class, err := m.Predict(context.Background(), vec)
	require.NoError(t, err)
	proba, err := m.PredictProba(context.Background(), vec)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, class)
	assert.InDelta(t, 0.2, proba[1], 1e-12)

	_, err = m.PredictProba(context.Background(), diagnosis.FeatureVector{1, 1, 0, 0, 1, 40})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemoteModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, diagnosis.ErrModelNotFound},
		{"shape", http.StatusUnprocessableEntity, diagnosis.ErrShapeMismatch},
		{"server error", http.StatusInternalServerError, diagnosis.ErrModelUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			m, err := NewRemoteRepository(srv.URL, time.Second).Load(context.Background(), diagnosis.LungCancer)
			require.NoError(t, err)
			_, err = m.Predict(context.Background(), diagnosis.FeatureVector{1})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRemoteModelUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m, err := NewRemoteRepository(url, time.Second).Load(context.Background(), diagnosis.BreastCancer)
	require.NoError(t, err)
	_, err = m.PredictProba(context.Background(), diagnosis.FeatureVector{1})
	assert.ErrorIs(t, err, diagnosis.ErrModelUnavailable)
}

func TestRemoteRepositoryUnknownType(t *testing.T) {
	_, err := NewRemoteRepository("http://localhost", time.Second).Load(context.Background(), "Bone Cancer")
	assert.ErrorIs(t, err, diagnosis.ErrUnknownCancerType)
}
