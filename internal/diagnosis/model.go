package diagnosis

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iancoleman/orderedmap"
)

type CancerType string

const (
	BreastCancer CancerType = "Breast Cancer"
	LungCancer   CancerType = "Lung Cancer"
	SkinCancer   CancerType = "Skin Cancer"
)

// CancerTypes lists the supported types in the order the form offers them.
func CancerTypes() []CancerType {
	return []CancerType{BreastCancer, LungCancer, SkinCancer}
}

func ParseCancerType(s string) (CancerType, error) {
	for _, ct := range CancerTypes() {
		if strings.EqualFold(string(ct), strings.TrimSpace(s)) || strings.EqualFold(ct.Slug(), s) {
			return ct, nil
		}
	}
	return "", ErrUnknownCancerType
}

// Slug replaces spaces with underscores: "Skin Cancer" -> "Skin_Cancer".
func (c CancerType) Slug() string {
	return strings.ReplaceAll(string(c), " ", "_")
}

var (
	ErrUnknownCancerType = errors.New("unknown cancer type")
	ErrMissingField      = errors.New("missing field")
	ErrInvalidInput      = errors.New("invalid input")
	ErrModelNotFound     = errors.New("model not found")
	ErrModelCorrupt      = errors.New("model artifact is corrupt")
	ErrModelUnavailable  = errors.New("model server unavailable")
	ErrShapeMismatch     = errors.New("feature vector shape mismatch")
	ErrPrediction        = errors.New("prediction failed")
)

// Value is a single form input: either a number or a categorical string.
type Value struct {
	num         float64
	text        string
	categorical bool
}

func Number(f float64) Value { return Value{num: f} }

func Category(s string) Value { return Value{text: s, categorical: true} }

func (v Value) IsCategorical() bool { return v.categorical }

func (v Value) Float() float64 { return v.num }

func (v Value) Text() string { return v.text }

func (v Value) String() string {
	if v.categorical {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.categorical {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.num)
}

type FieldValue struct {
	Name  string
	Value Value
}

// Request is an ordered, immutable set of field values for one submission.
type Request struct {
	fields []FieldValue
}

func NewRequest(fields ...FieldValue) Request {
	cp := make([]FieldValue, len(fields))
	copy(cp, fields)
	return Request{fields: cp}
}

func (r Request) Fields() []FieldValue {
	cp := make([]FieldValue, len(r.fields))
	copy(cp, r.fields)
	return cp
}

func (r Request) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

func (r Request) Len() int { return len(r.fields) }

// MarshalJSON keeps the submission order of the fields.
func (r Request) MarshalJSON() ([]byte, error) {
	m := orderedmap.New()
	for _, f := range r.fields {
		m.Set(f.Name, f.Value)
	}
	return json.Marshal(m)
}

type FeatureVector []float64

type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
)

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

type Result struct {
	Label       Label    `json:"result"`
	Probability float64  `json:"probability"`
	Severity    Severity `json:"severity"`
}

// Diagnosis is the outcome of one submission. It is never persisted.
type Diagnosis struct {
	ID         uuid.UUID  `json:"id"`
	CancerType CancerType `json:"cancer_type"`
	Request    Request    `json:"inputs"`
	Result
}

// State tracks where the form is in the diagnose/report cycle.
type State string

const (
	StateIdle            State = "idle"
	StateCollecting      State = "collecting"
	StateReady           State = "ready"
	StateDiagnosed       State = "diagnosed"
	StateReportAvailable State = "report_available"
	StateError           State = "error"
)
