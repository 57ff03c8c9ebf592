package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCreateDraftRevisionViaScript(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":true,"nid":123,"revision_id":456,"moderation_state":"suggestion"}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 123,
		map[string]string{"body": "new body"}, "editorial cleanup")

	require.True(t, rev.Success, "unexpected failure: %s", rev.Error)
	assert.Equal(t, int64(123), rev.NID)
	assert.Equal(t, int64(456), rev.RevisionID)
	assert.Equal(t, "suggestion", rev.ModerationState)
	assert.Equal(t, "https://dev-site.pantheonsite.io/node/123/revisions/456/view", rev.ReviewURL)

	require.Equal(t, 1, log.Len(), "one mutation, one record")
	rec := log.Records()[0]
	assert.True(t, rec.Success)
	assert.Equal(t, "update_node", rec.Operation)
	assert.Equal(t, "node/123", rec.Target)
	assert.Equal(t, "body", rec.Field)
	assert.Equal(t, "new body", rec.NewValue)
	assert.Equal(t, int64(456), rec.RevisionID)
}

func TestCreateDraftRevisionScriptFailureIsRecorded(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":false,"error":"field not found: field_bogus"}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 123,
		map[string]string{"field_bogus": "x"}, "r")

	assert.False(t, rev.Success)
	assert.Contains(t, rev.Error, "field_bogus")

	require.Equal(t, 1, log.Len())
	rec := log.Records()[0]
	assert.False(t, rec.Success)
	assert.Contains(t, rec.Error, "field_bogus")
}

func TestCreateDraftRevisionNodeMissing(t *testing.T) {
	fake := &fakeScript{nodeErr: context.DeadlineExceeded}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 999,
		map[string]string{"body": "x"}, "r")

	assert.False(t, rev.Success)
	assert.Equal(t, 1, log.Len(), "failed attempts are recorded too")
	assert.Empty(t, fake.evalCalls, "no script may run when the node lookup fails")
}

func TestCreateDraftRevisionMultiFieldRecords(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":true,"nid":1,"revision_id":2,"moderation_state":"suggestion"}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 1,
		map[string]string{"title": "T", "body": "B"}, "r")

	require.True(t, rev.Success)
	assert.Equal(t, 2, log.Len(), "one record per changed field")
}

func TestFindAndReplaceTypoScenario(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":true,"value":"Please recieve the package."}`,
		`{"success":true,"nid":123,"revision_id":789,"moderation_state":"suggestion"}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.FindAndReplace(context.Background(), 123, "body", "recieve", "receive", "")

	require.True(t, rev.Success, "unexpected failure: %s", rev.Error)
	assert.Equal(t, int64(789), rev.RevisionID)
	assert.NotEmpty(t, rev.ModerationState)
	assert.Contains(t, rev.ReviewURL, "/revisions/789/view",
		"review link points at the new revision")

	require.Equal(t, 1, log.Len())
	rec := log.Records()[0]
	assert.True(t, rec.Success)
	assert.Contains(t, rec.OldValue, "recieve")
	assert.Contains(t, rec.NewValue, "receive")
	assert.NotContains(t, rec.NewValue, "recieve")
	assert.Contains(t, rec.Reason, "recieve", "default reason names the replacement")
}

func TestFindAndReplaceNotFound(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":true,"value":"Nothing to fix here."}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.FindAndReplace(context.Background(), 123, "body", "recieve", "receive", "r")

	assert.False(t, rev.Success)
	assert.Contains(t, rev.Error, "not found")
	assert.Len(t, fake.evalCalls, 1, "only the read may hit the backend")
	assert.Equal(t, 0, log.Len(), "no mutation attempted, nothing recorded")
}

func TestFindAndReplaceBrowserUnsupported(t *testing.T) {
	fake := &fakeForm{}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.FindAndReplace(context.Background(), 123, "body", "a", "b", "r")

	assert.False(t, rev.Success)
	assert.Contains(t, rev.Error, "terminus")
	assert.Contains(t, rev.Error, "browser")
	assert.Equal(t, 0, fake.editCalls)
	assert.Equal(t, 0, log.Len())
}

func TestCreateDraftRevisionViaForm(t *testing.T) {
	fake := &fakeForm{}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 55,
		map[string]string{"body": "updated"}, "r")

	require.True(t, rev.Success, "unexpected failure: %s", rev.Error)
	assert.Equal(t, 1, fake.editCalls)
	assert.Equal(t, "screenshots/node_55_after.png", rev.ScreenshotPath)
	assert.Equal(t, "https://edit.example.org/node/55/latest", rev.ReviewURL)

	require.Equal(t, 1, log.Len())
	rec := log.Records()[0]
	assert.Equal(t, "browser", rec.Backend)
	assert.Equal(t, placeholderOld, rec.OldValue)
	assert.Equal(t, "screenshots/node_55_after.png", rec.ScreenshotPath)
}

func TestCreateDraftRevisionFormFailureIsRecorded(t *testing.T) {
	fake := &fakeForm{editErr: assertErr("no status message after saving node 55")}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 55,
		map[string]string{"body": "updated"}, "r")

	assert.False(t, rev.Success)
	assert.Contains(t, rev.Error, "no status message")
	require.Equal(t, 1, log.Len())
	assert.False(t, log.Records()[0].Success)
}

func TestCreateDraftRevisionFormKeepsBeforeShot(t *testing.T) {
	fake := &fakeForm{
		editErr: assertErr("no status message after saving node 55"),
		result:  &backend.FormResult{BeforePath: "screenshots/node_55_before.png"},
	}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	rev := editor.CreateDraftRevision(context.Background(), 55,
		map[string]string{"body": "updated"}, "r")

	assert.False(t, rev.Success)
	assert.Equal(t, "screenshots/node_55_before.png", rev.ScreenshotPath,
		"failed saves keep the pre-edit capture")
	require.Equal(t, 1, log.Len())
	assert.Equal(t, "screenshots/node_55_before.png", log.Records()[0].ScreenshotPath)
}

func TestUpdateScriptCarriesPayloadNotInterpolation(t *testing.T) {
	fake := &fakeScript{outputs: []string{
		`{"success":true,"nid":1,"revision_id":2}`,
	}}
	log := changelog.NewWithSession("s")
	editor := NewNodeEditor(fake, log, nil)

	hostile := `"; system("true"); //`
	rev := editor.CreateDraftRevision(context.Background(), 1,
		map[string]string{"body": hostile}, "r")

	require.True(t, rev.Success)
	require.Len(t, fake.evalCalls, 1)
	assert.False(t, strings.Contains(fake.evalCalls[0], hostile),
		"field values must travel in the encoded payload, not the PHP source")
}

// assertErr is a trivial error type for wiring failures into fakes.
type assertErr string

func (e assertErr) Error() string { return string(e) }
