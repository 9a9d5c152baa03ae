package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cancer-diagnosis/internal/diagnosis"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run one diagnosis from the command line",
	Long: `Run one diagnosis and print the result. Fields that are not set take the
form's default value.

  cancer-diagnosis diagnose --type "Skin Cancer" --set Gender=Male --set Itching=Yes --set Age=40`,
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().String("type", string(diagnosis.BreastCancer), "Cancer type: Breast Cancer, Lung Cancer or Skin Cancer")
	diagnoseCmd.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")
	diagnoseCmd.Flags().String("report", "", "Write the PDF report to this file or directory")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	sets, _ := cmd.Flags().GetStringArray("set")
	reportPath, _ := cmd.Flags().GetString("report")

	ct, err := diagnosis.ParseCancerType(typeName)
	if err != nil {
		return fmt.Errorf("%w: %q", err, typeName)
	}
	schema, err := diagnosis.SchemaFor(ct)
	if err != nil {
		return err
	}

	values, err := parseSets(sets)
	if err != nil {
		return err
	}
	defaults := schema.Defaults()
	req, err := schema.Parse(func(name string) (string, bool) {
		if raw, ok := values[name]; ok {
			return raw, true
		}
		v, ok := defaults.Get(name)
		return v.String(), ok
	})
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	d, err := a.diagnosis.Diagnose(cmd.Context(), ct, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printDiagnosis(out, d)

	if reportPath == "" {
		return nil
	}
	defer a.reports.Wait()
	return a.diagnosis.Report(cmd.Context(), d, func(name string, r io.Reader) error {
		dst := reportPath
		if info, err := os.Stat(dst); err == nil && info.IsDir() {
			dst = filepath.Join(dst, name)
		}
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(f, r); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", dst)
		return nil
	})
}

func parseSets(sets []string) (map[string]string, error) {
	values := make(map[string]string, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: --set %q must be name=value", diagnosis.ErrInvalidInput, s)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}

func printDiagnosis(w io.Writer, d *diagnosis.Diagnosis) {
	label := color.New(color.FgGreen, color.Bold)
	if d.Label == diagnosis.Positive {
		label = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintf(w, "Diagnosis Result: %s\n", label.Sprint(d.Label))
	fmt.Fprintf(w, "Probability: %s\n", diagnosis.FormatProbability(d.Probability))
	fmt.Fprintf(w, "Seriousness Level: %s\n", severityColor(d.Severity).Sprint(d.Severity))
}

func severityColor(s diagnosis.Severity) *color.Color {
	switch s {
	case diagnosis.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case diagnosis.SeverityModerate:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
