package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cancer-diagnosis/internal/diagnosis"
)

func TestParseSets(t *testing.T) {
	values, err := parseSets([]string{"Gender=Female", " Age =55", "Shortness of Breath=Yes"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Gender": "Female", "Age": "55", "Shortness of Breath": "Yes"}, values)

	_, err = parseSets([]string{"Age"})
	assert.ErrorIs(t, err, diagnosis.ErrInvalidInput)
	_, err = parseSets([]string{"=Yes"})
	assert.ErrorIs(t, err, diagnosis.ErrInvalidInput)
}

func TestPrintDiagnosis(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	printDiagnosis(&buf, &diagnosis.Diagnosis{
		ID:         uuid.New(),
		CancerType: diagnosis.SkinCancer,
		Result:     diagnosis.Result{Label: diagnosis.Positive, Probability: 0.85, Severity: diagnosis.SeverityHigh},
	})
	assert.Equal(t, "Diagnosis Result: Positive\nProbability: 0.85\nSeriousness Level: High\n", buf.String())
}
