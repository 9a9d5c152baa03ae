package diagnosis

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

//go:embed schemas.yaml
var schemasYAML []byte

type FieldKind string

const (
	KindNumeric FieldKind = "numeric"
	KindChoice  FieldKind = "choice"
	KindInteger FieldKind = "integer"
)

type Field struct {
	Name    string    `yaml:"name" json:"name"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Options []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Min     *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Default *float64  `yaml:"default,omitempty" json:"default,omitempty"`
}

// DefaultValue is what the form shows before the user touches the field.
func (f Field) DefaultValue() Value {
	if f.Kind == KindChoice {
		if len(f.Options) > 0 {
			return Category(f.Options[0])
		}
		return Category("")
	}
	if f.Default != nil {
		return Number(*f.Default)
	}
	if f.Min != nil {
		return Number(*f.Min)
	}
	return Number(0)
}

// Label turns snake_case feature names into form labels.
func (f Field) Label() string {
	if !strings.Contains(f.Name, "_") {
		return f.Name
	}
	words := strings.Split(f.Name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Parse converts a raw form value into a typed Value, enforcing the field's declared type.
func (f Field) Parse(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case KindChoice:
		for _, opt := range f.Options {
			if opt == raw {
				return Category(raw), nil
			}
		}
		return Value{}, fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidInput, f.Name, strings.Join(f.Options, ", "), raw)
	case KindNumeric, KindInteger:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Value{}, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidInput, f.Name, raw)
		}
		if f.Kind == KindInteger && n != math.Trunc(n) {
			return Value{}, fmt.Errorf("%w: %s must be a whole number, got %q", ErrInvalidInput, f.Name, raw)
		}
		if f.Min != nil && n < *f.Min {
			return Value{}, fmt.Errorf("%w: %s must be at least %g", ErrInvalidInput, f.Name, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return Value{}, fmt.Errorf("%w: %s must be at most %g", ErrInvalidInput, f.Name, *f.Max)
		}
		return Number(n), nil
	default:
		return Value{}, fmt.Errorf("%w: %s has unsupported kind %q", ErrInvalidInput, f.Name, f.Kind)
	}
}

type Schema struct {
	CancerType CancerType `yaml:"cancer_type" json:"cancer_type"`
	Fields     []Field    `yaml:"fields" json:"fields"`
}

func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Parse builds a Request from raw values in schema order. All problems are
// reported together.
func (s Schema) Parse(lookup func(name string) (string, bool)) (Request, error) {
	var merr *multierror.Error
	fields := make([]FieldValue, 0, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := lookup(f.Name)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrMissingField, f.Name))
			continue
		}
		v, err := f.Parse(raw)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		fields = append(fields, FieldValue{Name: f.Name, Value: v})
	}
	if err := merr.ErrorOrNil(); err != nil {
		return Request{}, err
	}
	return NewRequest(fields...), nil
}

// Defaults returns a Request holding every field's default value.
func (s Schema) Defaults() Request {
	fields := make([]FieldValue, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = FieldValue{Name: f.Name, Value: f.DefaultValue()}
	}
	return NewRequest(fields...)
}

var schemas map[CancerType]Schema

func init() {
	var list []Schema
	if err := yaml.Unmarshal(schemasYAML, &list); err != nil {
		panic(fmt.Sprintf("diagnosis: parse embedded schemas: %v", err))
	}
	schemas = make(map[CancerType]Schema, len(list))
	for _, s := range list {
		schemas[s.CancerType] = s
	}
}

func SchemaFor(ct CancerType) (Schema, error) {
	s, ok := schemas[ct]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownCancerType, ct)
	}
	return s, nil
}

// Schemas returns every schema in form order.
func Schemas() []Schema {
	out := make([]Schema, 0, len(schemas))
	for _, ct := range CancerTypes() {
		if s, ok := schemas[ct]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports structural problems that need a decision from whoever owns
// the model. Nothing here is fixed automatically.
func (s Schema) Validate() error {
	var merr *multierror.Error
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if seen[f.Name] {
			merr = multierror.Append(merr, fmt.Errorf("%s: duplicate field %q", s.CancerType, f.Name))
		}
		seen[f.Name] = true

		if strings.EqualFold(f.Name, string(s.CancerType)) {
			merr = multierror.Append(merr, fmt.Errorf("%s: field %q names the diagnosis target and is probably leaking the label into the inputs", s.CancerType, f.Name))
		}
		switch f.Kind {
		case KindChoice:
			if len(f.Options) == 0 {
				merr = multierror.Append(merr, fmt.Errorf("%s: choice field %q has no options", s.CancerType, f.Name))
			}
		case KindNumeric, KindInteger:
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				merr = multierror.Append(merr, fmt.Errorf("%s: field %q has min %g above max %g", s.CancerType, f.Name, *f.Min, *f.Max))
			}
		default:
			merr = multierror.Append(merr, fmt.Errorf("%s: field %q has unsupported kind %q", s.CancerType, f.Name, f.Kind))
		}
	}
	return merr.ErrorOrNil()
}

// ValidateSchemas runs Validate over every known schema.
func ValidateSchemas() []error {
	var warnings []error
	for _, s := range Schemas() {
		if err := s.Validate(); err != nil {
			if me, ok := err.(*multierror.Error); ok {
				warnings = append(warnings, me.Errors...)
				continue
			}
			warnings = append(warnings, err)
		}
	}
	return warnings
}
