package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/google/uuid"
)

// Model is a pre-trained binary classifier for one cancer type.
type Model interface {
	Predict(ctx context.Context, features FeatureVector) (int, error)
	// PredictProba returns [p_negative, p_positive].
	PredictProba(ctx context.Context, features FeatureVector) ([]float64, error)
}

// ModelRepository loads the classifier for a cancer type.
// We define it here to decouple from the storage backend.
type ModelRepository interface {
	Load(ctx context.Context, ct CancerType) (Model, error)
}

// ReportService renders a diagnosis into a transient document. The document
// only exists for the duration of fn.
type ReportService interface {
	WithReport(ctx context.Context, d Diagnosis, fn func(name string, r io.Reader) error) error
}

type Service interface {
	Diagnose(ctx context.Context, ct CancerType, req Request) (*Diagnosis, error)
	Report(ctx context.Context, d *Diagnosis, fn func(name string, r io.Reader) error) error
}

type service struct {
	models    ModelRepository
	reportSvc ReportService
}

func NewService(models ModelRepository, report ReportService) Service {
	return &service{
		models:    models,
		reportSvc: report,
	}
}

// Diagnose runs encode -> predict -> classify for one submission. Failures are
// returned as-is; nothing is retried.
func (s *service) Diagnose(ctx context.Context, ct CancerType, req Request) (*Diagnosis, error) {
	schema, err := SchemaFor(ct)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	log := slog.With("diagnosis_id", id.String(), "cancer_type", string(ct))

	// 1. Load the classifier
	model, err := s.models.Load(ctx, ct)
	if err != nil {
		log.ErrorContext(ctx, "model load failed", "error", err)
		return nil, fmt.Errorf("load model: %w", err)
	}

	// 2. Encode
	features, err := Encode(schema, req)
	if err != nil {
		return nil, err
	}

	// 3. Predict
	class, err := model.Predict(ctx, features)
	if err != nil {
		log.ErrorContext(ctx, "predict failed", "error", err)
		return nil, predictionError(err)
	}
	proba, err := model.PredictProba(ctx, features)
	if err != nil {
		log.ErrorContext(ctx, "predict_proba failed", "error", err)
		return nil, predictionError(err)
	}
	if len(proba) != 2 {
		return nil, fmt.Errorf("%w: expected 2 class probabilities, got %d", ErrPrediction, len(proba))
	}
	p := proba[1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		log.ErrorContext(ctx, "model returned invalid probability", "probability", p)
		return nil, fmt.Errorf("%w: probability %v outside [0, 1]", ErrPrediction, p)
	}

	var label Label
	switch class {
	case 0:
		label = Negative
	case 1:
		label = Positive
	default:
		log.ErrorContext(ctx, "model returned invalid class", "class", class)
		return nil, fmt.Errorf("%w: class %d is not 0 or 1", ErrPrediction, class)
	}

	d := &Diagnosis{
		ID:         id,
		CancerType: ct,
		Request:    req,
		Result: Result{
			Label:       label,
			Probability: p,
			Severity:    SeverityFor(p),
		},
	}
	log.InfoContext(ctx, "diagnosis complete", "result", string(d.Label), "probability", p, "severity", string(d.Severity))
	return d, nil
}

func (s *service) Report(ctx context.Context, d *Diagnosis, fn func(name string, r io.Reader) error) error {
	if d == nil {
		return errors.New("report: nil diagnosis")
	}
	return s.reportSvc.WithReport(ctx, *d, fn)
}

func predictionError(err error) error {
	if errors.Is(err, ErrPrediction) || errors.Is(err, ErrShapeMismatch) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPrediction, err)
}
