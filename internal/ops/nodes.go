package ops

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
)

// DefaultModerationState is the workflow state new draft revisions are
// parked in so editors can review before anything publishes.
const DefaultModerationState = "suggestion"

// NodeEditor creates draft revisions of nodes. Edits never touch the
// published revision; they land in a moderation state for human review.
type NodeEditor struct {
	rec recorder

	// ModerationState applied to new drafts, DefaultModerationState
	// unless overridden.
	ModerationState string
}

// NewNodeEditor wires an editor to a backend and a session changelog.
func NewNodeEditor(b backend.Backend, log *changelog.Log, logger *zap.Logger) *NodeEditor {
	return &NodeEditor{
		rec:             newRecorder(b, log, logger),
		ModerationState: DefaultModerationState,
	}
}

// Get loads node metadata from the active backend.
func (e *NodeEditor) Get(ctx context.Context, nid int64) (*backend.Node, error) {
	return e.rec.backend.GetNode(ctx, nid)
}

// CreateDraftRevision replaces field values on a node in a new
// unpublished revision. Each changed field is recorded in the
// changelog, failures included.
func (e *NodeEditor) CreateDraftRevision(ctx context.Context, nid int64, changes map[string]string, reason string) *Revision {
	return e.createRevision(ctx, nid, changes, nil, reason)
}

// FindAndReplace swaps every occurrence of find with replace in one
// field. When the search text is absent the node is left untouched, no
// backend mutation happens, and nothing is recorded.
func (e *NodeEditor) FindAndReplace(ctx context.Context, nid int64, field, find, replace, reason string) *Revision {
	rev := &Revision{NID: nid}

	current, err := e.fieldValue(ctx, nid, field)
	if err != nil {
		rev.Error = err.Error()
		return rev
	}
	if !strings.Contains(current, find) {
		rev.Error = fmt.Sprintf("%q not found in %s of node %d", find, field, nid)
		e.rec.logger.Debug("find/replace matched nothing",
			zap.Int64("nid", nid), zap.String("field", field))
		return rev
	}

	updated := strings.ReplaceAll(current, find, replace)
	if reason == "" {
		reason = fmt.Sprintf("Replace %q with %q", find, replace)
	}
	return e.createRevision(ctx, nid,
		map[string]string{field: updated},
		map[string]string{field: current},
		reason)
}

// fieldValue reads the current value of a single-value text field.
func (e *NodeEditor) fieldValue(ctx context.Context, nid int64, field string) (string, error) {
	sr, ok := e.rec.backend.(backend.ScriptRunner)
	if !ok {
		return "", fmt.Errorf("find/replace requires the %s backend, active backend is %s",
			backend.KindTerminus, e.rec.backend.Kind())
	}

	php, err := backend.WrapPayload(phpFieldValue, map[string]any{"nid": nid, "field": field})
	if err != nil {
		return "", err
	}
	res, err := sr.EvalPHP(ctx, php)
	if err != nil {
		return "", err
	}
	tr, err := backend.ParseTrailer(res.Stdout)
	if err != nil {
		return "", err
	}
	if !tr.Success {
		return "", fmt.Errorf("read %s of node %d: %s", field, nid, tr.Error)
	}
	return tr.Value, nil
}

func (e *NodeEditor) createRevision(ctx context.Context, nid int64, changes, oldValues map[string]string, reason string) *Revision {
	if sr, ok := e.rec.backend.(backend.ScriptRunner); ok {
		return e.viaScript(ctx, sr, nid, changes, oldValues, reason)
	}
	if fd, ok := e.rec.backend.(backend.FormDriver); ok {
		return e.viaForm(ctx, fd, nid, changes, oldValues, reason)
	}

	rev := &Revision{
		NID:   nid,
		Error: fmt.Sprintf("backend %s supports neither scripts nor forms", e.rec.backend.Kind()),
	}
	e.recordChanges(nid, changes, oldValues, reason, rev)
	return rev
}

func (e *NodeEditor) viaScript(ctx context.Context, sr backend.ScriptRunner, nid int64, changes, oldValues map[string]string, reason string) *Revision {
	rev := &Revision{NID: nid, ModerationState: e.ModerationState}
	fail := func(msg string) *Revision {
		rev.Error = msg
		e.recordChanges(nid, changes, oldValues, reason, rev)
		return rev
	}

	node, err := sr.GetNode(ctx, nid)
	if err != nil {
		return fail(err.Error())
	}
	e.rec.logger.Debug("editing node",
		zap.Int64("nid", nid), zap.String("title", node.Title))

	php, err := backend.WrapPayload(phpUpdateNode, map[string]any{
		"nid":     nid,
		"changes": changes,
		"state":   e.ModerationState,
		"reason":  reason,
	})
	if err != nil {
		return fail(err.Error())
	}
	res, err := sr.EvalPHP(ctx, php)
	if err != nil {
		return fail(err.Error())
	}
	tr, err := backend.ParseTrailer(res.Stdout)
	if err != nil {
		return fail(err.Error())
	}
	if !tr.Success {
		return fail(tr.Error)
	}

	rev.Success = true
	rev.RevisionID = int64(tr.RevisionID)
	if tr.ModerationState != "" {
		rev.ModerationState = tr.ModerationState
	}
	rev.ReviewURL = e.rec.nodeReviewURL(ctx, nid, rev.RevisionID)
	e.recordChanges(nid, changes, oldValues, reason, rev)

	e.rec.logger.Info("draft revision created",
		zap.Int64("nid", nid),
		zap.Int64("revision_id", rev.RevisionID),
		zap.String("moderation_state", rev.ModerationState))
	return rev
}

func (e *NodeEditor) viaForm(ctx context.Context, fd backend.FormDriver, nid int64, changes, oldValues map[string]string, reason string) *Revision {
	rev := &Revision{NID: nid, ModerationState: e.ModerationState}

	res, err := fd.EditNode(ctx, nid, changes, e.ModerationState, reason)
	if res != nil {
		rev.ScreenshotPath = res.ScreenshotPath
		if rev.ScreenshotPath == "" {
			// Save failed before the post-save capture; keep the
			// pre-edit shot so the record still has evidence.
			rev.ScreenshotPath = res.BeforePath
		}
	}
	if err != nil {
		rev.Error = err.Error()
		e.recordChanges(nid, changes, oldValues, reason, rev)
		return rev
	}
	if len(res.MissingFields) > 0 {
		rev.Message = fmt.Sprintf("no form control for: %s", strings.Join(res.MissingFields, ", "))
	}

	rev.Success = true
	rev.ReviewURL = e.rec.nodeReviewURL(ctx, nid, 0)
	e.recordChanges(nid, changes, oldValues, reason, rev)

	e.rec.logger.Info("node edited via admin form",
		zap.Int64("nid", nid), zap.String("screenshot", rev.ScreenshotPath))
	return rev
}

// recordChanges appends one changelog entry per field in the edit.
func (e *NodeEditor) recordChanges(nid int64, changes, oldValues map[string]string, reason string, rev *Revision) {
	op := "update_node"
	for field, newValue := range changes {
		oldValue := placeholderOld
		if v, ok := oldValues[field]; ok {
			oldValue = v
		}
		e.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)
	}
	if len(changes) == 0 {
		e.rec.record(op, nodeTarget(nid), "", "", "", reason, rev)
	}
}
