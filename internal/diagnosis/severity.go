package diagnosis

const (
	highThreshold     = 0.85
	moderateThreshold = 0.5
)

// SeverityFor maps a positive-class probability to a tier. Both thresholds are inclusive.
func SeverityFor(p float64) Severity {
	switch {
	case p >= highThreshold:
		return SeverityHigh
	case p >= moderateThreshold:
		return SeverityModerate
	default:
		return SeverityLow
	}
}
