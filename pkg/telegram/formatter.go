package telegram

import (
	"fmt"
	"strings"
	"time"
)

// FormatRunSummaryMessage renders the post-run validation report for the
// configured chat.
func FormatRunSummaryMessage(runAt time.Time, rowCount int, checks []string, passed bool) string {
	var b strings.Builder

	status := "✅ PASSED"
	if !passed {
		status = "❌ FAILED"
	}

	b.WriteString(fmt.Sprintf("*Pre-market pipeline run* %s\n", runAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Rows emitted: *%d*\n", rowCount))
	b.WriteString(fmt.Sprintf("Validation: *%s*\n\n", status))
	for _, check := range checks {
		b.WriteString(fmt.Sprintf("`%s`\n", check))
	}

	return b.String()
}

// FormatErrorAlertMessage renders a fatal-path alert.
func FormatErrorAlertMessage(at time.Time, detail string) string {
	return fmt.Sprintf("*Pre-market pipeline error* %s\n%s", at.Format("2006-01-02 15:04"), detail)
}
