package model

import (
	"context"
	"fmt"
	"math"

	"cancer-diagnosis/internal/diagnosis"
)

// logistic is a binary logistic-regression classifier with optional
// standardization of its inputs.
type logistic struct {
	a *Artifact
}

func newLogistic(a *Artifact) *logistic {
	return &logistic{a: a}
}

func (m *logistic) Predict(ctx context.Context, features diagnosis.FeatureVector) (int, error) {
	proba, err := m.PredictProba(ctx, features)
	if err != nil {
		return 0, err
	}
	if proba[1] >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

func (m *logistic) PredictProba(_ context.Context, features diagnosis.FeatureVector) ([]float64, error) {
	if len(features) != len(m.a.Coefficients) {
		return nil, fmt.Errorf("%w: X has %d features, but the model is expecting %d features as input",
			diagnosis.ErrShapeMismatch, len(features), len(m.a.Coefficients))
	}

	z := m.a.Intercept
	for i, x := range features {
		if m.a.Scaler != nil {
			x = (x - m.a.Scaler.Mean[i]) / m.a.Scaler.Scale[i]
		}
		z += m.a.Coefficients[i] * x
	}
	if math.IsNaN(z) {
		return nil, fmt.Errorf("%w: decision function is not a number for these inputs", diagnosis.ErrPrediction)
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
