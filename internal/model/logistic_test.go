package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancer-diagnosis/internal/diagnosis"
)

func TestLogisticPredictProba(t *testing.T) {
	m := newLogistic(&Artifact{
		Estimator:    estimatorLogistic,
		Features:     []string{"a", "b"},
		Coefficients: []float64{1, -1},
		Intercept:    0,
	})

	proba, err := m.PredictProba(context.Background(), diagnosis.FeatureVector{2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, proba[1], 1e-12)

	class, err := m.Predict(context.Background(), diagnosis.FeatureVector{3, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, class)

	_, err = m.PredictProba(context.Background(), diagnosis.FeatureVector{1})
	assert.ErrorIs(t, err, diagnosis.ErrShapeMismatch)
}

func TestLogisticOverflowingInputs(t *testing.T) {
	m := newLogistic(&Artifact{
		Estimator:    estimatorLogistic,
		Features:     []string{"a", "b"},
		Coefficients: []float64{1, -1},
		Scaler:       &Scaler{Mean: []float64{0, 0}, Scale: []float64{0.5, 0.5}},
	})

	_, err := m.PredictProba(context.Background(), diagnosis.FeatureVector{1e308, 1e308})
	assert.ErrorIs(t, err, diagnosis.ErrPrediction)

	_, err = m.Predict(context.Background(), diagnosis.FeatureVector{1e308, 1e308})
	assert.ErrorIs(t, err, diagnosis.ErrPrediction)
}

func TestLogisticSaturatesWithoutNaN(t *testing.T) {
	m := newLogistic(&Artifact{
		Estimator:    estimatorLogistic,
		Features:     []string{"a"},
		Coefficients: []float64{1},
	})

	proba, err := m.PredictProba(context.Background(), diagnosis.FeatureVector{1e308})
	require.NoError(t, err)
	assert.Equal(t, 1.0, proba[1])

	proba, err = m.PredictProba(context.Background(), diagnosis.FeatureVector{-1e308})
	require.NoError(t, err)
	assert.Equal(t, 0.0, proba[1])
}
