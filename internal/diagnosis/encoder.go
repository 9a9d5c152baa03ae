package diagnosis

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// affirmative is the only categorical value that encodes to 1.
const affirmative = "Yes"

// Encode maps a request onto the feature order of the schema. Numbers pass
// through; categorical values become 1 for "Yes" and 0 for anything else,
// including non-binary choices such as Gender. Ranges are not checked here and
// the vector length is not compared against any model.
func Encode(s Schema, req Request) (FeatureVector, error) {
	var merr *multierror.Error
	vec := make(FeatureVector, 0, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := req.Get(f.Name)
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("%w: %s", ErrMissingField, f.Name))
			continue
		}
		vec = append(vec, encodeValue(v))
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return vec, nil
}

func encodeValue(v Value) float64 {
	if !v.IsCategorical() {
		return v.Float()
	}
	if v.Text() == affirmative {
		return 1
	}
	return 0
}
