package diagnosis

import "testing"

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		p    float64
		want Severity
	}{
		{0.0, SeverityLow},
		{0.2, SeverityLow},
		{0.4999, SeverityLow},
		{0.5, SeverityModerate},
		{0.62, SeverityModerate},
		{0.8499, SeverityModerate},
		{0.85, SeverityHigh},
		{0.9, SeverityHigh},
		{1.0, SeverityHigh},
	}

	for _, tt := range tests {
		got := SeverityFor(tt.p)
		if got != tt.want {
			t.Errorf("SeverityFor(%.4f) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
