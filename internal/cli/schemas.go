package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cancer-diagnosis/internal/diagnosis"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Print the input schema of each cancer type and any schema warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, s := range diagnosis.Schemas() {
			fmt.Fprintf(out, "%s (%d fields)\n", s.CancerType, len(s.Fields))
			for i, f := range s.Fields {
				fmt.Fprintf(out, "  %2d. %-24s %s\n", i+1, f.Name, describeField(f))
			}
		}

		warnings := diagnosis.ValidateSchemas()
		if len(warnings) == 0 {
			return nil
		}
		warn := color.New(color.FgYellow)
		fmt.Fprintln(out)
		for _, w := range warnings {
			warn.Fprintf(out, "warning: %s\n", w)
		}
		return nil
	},
}

func describeField(f diagnosis.Field) string {
	switch f.Kind {
	case diagnosis.KindChoice:
		return "one of " + strings.Join(f.Options, ", ")
	case diagnosis.KindInteger:
		return fmt.Sprintf("integer %s..%s", bound(f.Min), bound(f.Max))
	default:
		if f.Min != nil {
			return fmt.Sprintf("number >= %g", *f.Min)
		}
		return "number"
	}
}

func bound(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%g", *p)
}
