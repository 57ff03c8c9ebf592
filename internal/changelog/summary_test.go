package changelog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func sampleExport() Export {
	log := NewWithSession("20260115_093000")
	log.Append(Record{
		Backend:    "terminus",
		Operation:  "find_replace",
		Target:     "node/123",
		Field:      "body",
		OldValue:   "please recieve this",
		NewValue:   "please receive this",
		RevisionID: 456,
		ReviewURL:  "https://dev-site.pantheonsite.io/node/123/revisions/456/view",
		Success:    true,
	})
	log.Append(Record{
		Backend:   "terminus",
		Operation: "remove_tag",
		Target:    "node/456",
		Field:     "field_tags",
		Success:   false,
		Error:     "content moderation is not enabled for this node",
	})
	return log.Export()
}

func TestMarkdownSummary(t *testing.T) {
	md := sampleExport().Markdown()

	assert.Contains(t, md, "## Content Changes Summary")
	assert.Contains(t, md, "**Session:** 20260115_093000")
	assert.Contains(t, md, "**Changes:** 1 successful, 1 failed")
	assert.Contains(t, md, "| Target | Field | Change | Review |")
	assert.Contains(t, md, "| node/123 | body |")
	assert.Contains(t, md, "[Review](https://dev-site.pantheonsite.io/node/123/revisions/456/view)")
	assert.Contains(t, md, "### Failed Changes")
	assert.Contains(t, md, "- **node/456** (remove_tag): content moderation is not enabled for this node")
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	log := NewWithSession("s")
	log.Append(Record{Target: "node/1", Operation: "update_node", Success: true})
	md := log.Export().Markdown()

	assert.NotContains(t, md, "### Failed Changes")
}

func TestMarkdownTruncatesCells(t *testing.T) {
	log := NewWithSession("s")
	log.Append(Record{
		Target:   "node/1",
		Field:    "body",
		OldValue: strings.Repeat("a", 80),
		NewValue: "b",
		Success:  true,
	})
	md := log.Export().Markdown()

	assert.Contains(t, md, strings.Repeat("a", 20)+"...")
	assert.NotContains(t, md, strings.Repeat("a", 30))
}

func TestPlainTextSummary(t *testing.T) {
	got := sampleExport().PlainText()
	want := strings.Join([]string{
		"Content Changes Summary (session 20260115_093000)",
		"2 changes: 1 successful, 1 failed",
		"[ok] find_replace node/123 field=body review=https://dev-site.pantheonsite.io/node/123/revisions/456/view",
		"[FAILED] remove_tag node/456 field=field_tags error=content moderation is not enabled for this node",
		"",
	}, "\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plain text summary mismatch (-want +got):\n%s", diff)
	}
}
