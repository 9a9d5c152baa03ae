package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"cancer-diagnosis/internal/diagnosis"
)

// remoteRepository talks to an inference server that hosts the trained
// classifiers, one endpoint per cancer type.
type remoteRepository struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteRepository(baseURL string, timeout time.Duration) diagnosis.ModelRepository {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &remoteRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Load binds a model handle to the cancer type. The server is only contacted
// when a prediction is requested.
func (r *remoteRepository) Load(ctx context.Context, ct diagnosis.CancerType) (diagnosis.Model, error) {
	if _, ok := artifactNames[ct]; !ok {
		return nil, fmt.Errorf("%w: %q", diagnosis.ErrUnknownCancerType, ct)
	}
	return &remoteModel{
		url:        fmt.Sprintf("%s/predict/%s", r.baseURL, url.PathEscape(ct.Slug())),
		httpClient: r.httpClient,
	}, nil
}

// remoteModel keeps the last response so that Predict and PredictProba for the
// same features are answered by a single server call.
type remoteModel struct {
	url        string
	httpClient *http.Client

	mu           sync.Mutex
	lastFeatures diagnosis.FeatureVector
	last         *predictResponse
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Label         int       `json:"label"`
	Probabilities []float64 `json:"probabilities"`
}

func (m *remoteModel) Predict(ctx context.Context, features diagnosis.FeatureVector) (int, error) {
	resp, err := m.predict(ctx, features)
	if err != nil {
		return 0, err
	}
	return resp.Label, nil
}

func (m *remoteModel) PredictProba(ctx context.Context, features diagnosis.FeatureVector) ([]float64, error) {
	resp, err := m.predict(ctx, features)
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

func (m *remoteModel) predict(ctx context.Context, features diagnosis.FeatureVector) (*predictResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last != nil && slices.Equal(m.lastFeatures, features) {
		return m.last, nil
	}
	resp, err := m.call(ctx, features)
	if err != nil {
		return nil, err
	}
	m.lastFeatures = slices.Clone(features)
	m.last = resp
	return resp, nil
}

func (m *remoteModel) call(ctx context.Context, features diagnosis.FeatureVector) (*predictResponse, error) {
	jsonBody, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", diagnosis.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", diagnosis.ErrModelNotFound, m.url)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s", diagnosis.ErrShapeMismatch, strings.TrimSpace(string(body)))
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: model server returned %s - %s", diagnosis.ErrModelUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", diagnosis.ErrPrediction, err)
	}
	return &result, nil
}
