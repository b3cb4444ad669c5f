package doctor

import (
	"fmt"
	"io"
)

// FormatReport writes one ✓ or ✗ line per result, then a summary that counts
// errors and warnings separately.
func FormatReport(w io.Writer, report DiagnosticReport) {
	for _, r := range report.Results {
		if r.Passed {
			fmt.Fprintf(w, "✓ %s: OK\n", r.Name)
			continue
		}
		marker := "✗"
		if r.Severity == SeverityWarning {
			marker = "!"
		}
		fmt.Fprintf(w, "%s %s: %s\n", marker, r.Name, r.Details)
		if r.Suggestion != "" {
			fmt.Fprintf(w, "  → %s\n", r.Suggestion)
		}
	}

	if len(report.Results) > 0 {
		fmt.Fprint(w, "\n")
	}

	errs, warns := report.ErrorCount(), report.WarningCount()
	switch {
	case errs == 0 && warns == 0:
		fmt.Fprint(w, "No issues found.\n")
	case warns == 0:
		fmt.Fprintf(w, "%s found.\n", plural(errs, "error"))
	case errs == 0:
		fmt.Fprintf(w, "%s found.\n", plural(warns, "warning"))
	default:
		fmt.Fprintf(w, "%s and %s found.\n", plural(errs, "error"), plural(warns, "warning"))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// ExitCode is 1 when the report has error-severity failures, else 0.
func ExitCode(report DiagnosticReport) int {
	if report.HasErrors() {
		return 1
	}
	return 0
}
