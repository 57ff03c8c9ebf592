package changelog

import (
	"fmt"
	"strings"
)

// cellLimit keeps table cells short enough for chat clients that wrap
// markdown tables poorly.
const cellLimit = 20

// Markdown renders the session as Slack-flavored markdown with a table
// of successful changes and a bullet list of failures.
func (e Export) Markdown() string {
	var b strings.Builder

	b.WriteString("## Content Changes Summary\n\n")
	fmt.Fprintf(&b, "**Session:** %s\n", e.SessionID)
	fmt.Fprintf(&b, "**Changes:** %d successful, %d failed\n\n", e.Successful, e.Failed)

	if e.Successful > 0 {
		b.WriteString("### Successful Changes\n\n")
		b.WriteString("| Target | Field | Change | Review |\n")
		b.WriteString("|--------|-------|--------|--------|\n")
		for _, r := range e.Records {
			if !r.Success {
				continue
			}
			change := fmt.Sprintf("%q -> %q",
				truncate(r.OldValue, cellLimit), truncate(r.NewValue, cellLimit))
			review := "-"
			if r.ReviewURL != "" {
				review = fmt.Sprintf("[Review](%s)", r.ReviewURL)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Target, r.Field, change, review)
		}
		b.WriteString("\n")
	}

	if e.Failed > 0 {
		b.WriteString("### Failed Changes\n\n")
		for _, r := range e.Records {
			if r.Success {
				continue
			}
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", r.Target, r.Operation, r.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// PlainText renders the session without markup, one line per record.
func (e Export) PlainText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Content Changes Summary (session %s)\n", e.SessionID)
	fmt.Fprintf(&b, "%d changes: %d successful, %d failed\n", e.Total, e.Successful, e.Failed)

	for _, r := range e.Records {
		status := "ok"
		if !r.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "[%s] %s %s", status, r.Operation, r.Target)
		if r.Field != "" {
			fmt.Fprintf(&b, " field=%s", r.Field)
		}
		if !r.Success {
			fmt.Fprintf(&b, " error=%s", r.Error)
		} else if r.ReviewURL != "" {
			fmt.Fprintf(&b, " review=%s", r.ReviewURL)
		}
		b.WriteString("\n")
	}

	return b.String()
}
