package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"cancer-diagnosis/internal/diagnosis"
)

const estimatorLogistic = "logistic_regression"

// Artifact is the serialized form of a trained classifier.
type Artifact struct {
	Estimator    string    `json:"estimator"`
	CancerType   string    `json:"cancer_type,omitempty"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Scaler       *Scaler   `json:"scaler,omitempty"`
}

// Scaler holds the standardization fitted alongside the estimator.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

const artifactSchemaURL = "schema://model-artifact.json"

const artifactSchema = `{
  "type": "object",
  "required": ["estimator", "features", "coefficients", "intercept"],
  "properties": {
    "estimator": {"enum": ["logistic_regression"]},
    "cancer_type": {"type": "string"},
    "features": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "coefficients": {"type": "array", "minItems": 1, "items": {"type": "number"}},
    "intercept": {"type": "number"},
    "scaler": {
      "type": "object",
      "required": ["mean", "scale"],
      "properties": {
        "mean": {"type": "array", "items": {"type": "number"}},
        "scale": {"type": "array", "items": {"type": "number"}}
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledArtifactSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(artifactSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse artifact schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(artifactSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(artifactSchemaURL)
	})
	return compiled, compileErr
}

// DecodeArtifact parses and validates a serialized classifier.
func DecodeArtifact(raw []byte) (*Artifact, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", diagnosis.ErrModelCorrupt, err)
	}

	sch, err := compiledArtifactSchema()
	if err != nil {
		return nil, fmt.Errorf("compile artifact schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", diagnosis.ErrModelCorrupt, err)
	}

	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", diagnosis.ErrModelCorrupt, err)
	}
	if err := a.check(); err != nil {
		return nil, fmt.Errorf("%w: %v", diagnosis.ErrModelCorrupt, err)
	}
	return &a, nil
}

func (a *Artifact) check() error {
	n := len(a.Features)
	if len(a.Coefficients) != n {
		return fmt.Errorf("%d coefficients for %d features", len(a.Coefficients), n)
	}
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n {
			return fmt.Errorf("scaler has %d means and %d scales for %d features", len(a.Scaler.Mean), len(a.Scaler.Scale), n)
		}
		for i, s := range a.Scaler.Scale {
			if s == 0 || math.IsNaN(s) {
				return fmt.Errorf("scaler scale for %s is %v", a.Features[i], s)
			}
		}
	}
	return nil
}
