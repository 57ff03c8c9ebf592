package ops

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
)

// DefaultTagModerationState parks tag edits in a plain draft; tag
// changes are lower stakes than body rewrites.
const DefaultTagModerationState = "draft"

// ErrTermNotFound is returned when a vocabulary has no term with the
// requested name.
var ErrTermNotFound = errors.New("taxonomy term not found")

// Term is one taxonomy term as listed from a vocabulary tree.
type Term struct {
	ID    backend.FlexInt `json:"tid"`
	Name  string          `json:"name"`
	Depth int             `json:"depth"`
}

// TaxonomyManager manages term lookups and node tagging. Tag mutations
// need the script-running backend; in browser mode they fail up front
// and the refusal is still recorded.
type TaxonomyManager struct {
	rec recorder

	// ModerationState applied to tag-edit revisions.
	ModerationState string
}

// NewTaxonomyManager wires a manager to a backend and a session changelog.
func NewTaxonomyManager(b backend.Backend, log *changelog.Log, logger *zap.Logger) *TaxonomyManager {
	return &TaxonomyManager{
		rec:             newRecorder(b, log, logger),
		ModerationState: DefaultTagModerationState,
	}
}

// Terms lists every term in a vocabulary, parents before children.
func (m *TaxonomyManager) Terms(ctx context.Context, vocabulary string) ([]Term, error) {
	sr, ok := m.rec.backend.(backend.ScriptRunner)
	if !ok {
		return nil, fmt.Errorf("listing terms requires the %s backend, active backend is %s",
			backend.KindTerminus, m.rec.backend.Kind())
	}

	php, err := backend.WrapPayload(phpListTerms, map[string]any{"vocabulary": vocabulary})
	if err != nil {
		return nil, err
	}
	res, err := sr.EvalPHP(ctx, php)
	if err != nil {
		return nil, err
	}
	var terms []Term
	if err := backend.ParseTrailerInto(res.Stdout, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// TermID resolves a term name within a vocabulary to its id.
func (m *TaxonomyManager) TermID(ctx context.Context, vocabulary, name string) (int64, error) {
	sr, ok := m.rec.backend.(backend.ScriptRunner)
	if !ok {
		return 0, fmt.Errorf("term lookup requires the %s backend, active backend is %s",
			backend.KindTerminus, m.rec.backend.Kind())
	}

	php, err := backend.WrapPayload(phpTermID, map[string]any{
		"vocabulary": vocabulary,
		"name":       name,
	})
	if err != nil {
		return 0, err
	}
	res, err := sr.EvalPHP(ctx, php)
	if err != nil {
		return 0, err
	}
	tr, err := backend.ParseTrailer(res.Stdout)
	if err != nil {
		return 0, err
	}
	if !tr.Success {
		return 0, fmt.Errorf("%q in %s: %w", name, vocabulary, ErrTermNotFound)
	}

	var id backend.FlexInt
	if err := id.UnmarshalJSON([]byte(tr.Value)); err != nil {
		return 0, fmt.Errorf("term id for %q: %w", name, err)
	}
	return int64(id), nil
}

// AddTag appends a term to a node's tag field in a new draft revision.
// Adding an already-present term succeeds without a new revision.
func (m *TaxonomyManager) AddTag(ctx context.Context, nid int64, field string, termID int64, reason string) *Revision {
	return m.runTagScript(ctx, "add_tag", phpAddTag, nid, field,
		map[string]any{
			"nid": nid, "field": field, "tid": termID,
			"state": m.ModerationState, "reason": reason,
		},
		"", termRef(termID), reason)
}

// RemoveTag removes a term from a node's tag field. Removing an absent
// term succeeds without a new revision.
func (m *TaxonomyManager) RemoveTag(ctx context.Context, nid int64, field string, termID int64, reason string) *Revision {
	return m.runTagScript(ctx, "remove_tag", phpRemoveTag, nid, field,
		map[string]any{
			"nid": nid, "field": field, "tid": termID,
			"state": m.ModerationState, "reason": reason,
		},
		termRef(termID), "", reason)
}

// ReplaceTag swaps one term for another in a single revision. The old
// term must be present on the node.
func (m *TaxonomyManager) ReplaceTag(ctx context.Context, nid int64, field string, oldID, newID int64, reason string) *Revision {
	return m.runTagScript(ctx, "replace_tag", phpReplaceTag, nid, field,
		map[string]any{
			"nid": nid, "field": field, "old_tid": oldID, "new_tid": newID,
			"state": m.ModerationState, "reason": reason,
		},
		termRef(oldID), termRef(newID), reason)
}

// ProposeTerm records a suggestion to create a vocabulary term, for a
// human to act on. Nothing is sent to the backend.
func (m *TaxonomyManager) ProposeTerm(vocabulary, name, reason string) changelog.Record {
	return m.rec.log.Append(changelog.Record{
		Backend:   string(m.rec.backend.Kind()),
		Operation: "propose_term",
		Target:    "vocabulary/" + vocabulary,
		NewValue:  name,
		Reason:    reason,
		Success:   true,
	})
}

// ProposeNodeTag records a suggestion to tag a node with a term that
// may not exist yet. Nothing is sent to the backend.
func (m *TaxonomyManager) ProposeNodeTag(nid int64, field, name, vocabulary, reason string) changelog.Record {
	return m.rec.log.Append(changelog.Record{
		Backend:   string(m.rec.backend.Kind()),
		Operation: "propose_node_tag",
		Target:    nodeTarget(nid),
		Field:     field,
		NewValue:  fmt.Sprintf("%s (%s)", name, vocabulary),
		Reason:    reason,
		Success:   true,
	})
}

// runTagScript runs one tag mutation end to end and always records the
// attempt, including the unsupported-backend refusal.
func (m *TaxonomyManager) runTagScript(ctx context.Context, op, php string, nid int64, field string, payload map[string]any, oldValue, newValue, reason string) *Revision {
	rev := &Revision{NID: nid}

	sr, ok := m.rec.backend.(backend.ScriptRunner)
	if !ok {
		rev.Error = fmt.Sprintf("%s requires the %s backend, active backend is %s",
			op, backend.KindTerminus, m.rec.backend.Kind())
		m.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)
		return rev
	}

	src, err := backend.WrapPayload(php, payload)
	if err != nil {
		rev.Error = err.Error()
		m.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)
		return rev
	}
	res, err := sr.EvalPHP(ctx, src)
	if err != nil {
		rev.Error = err.Error()
		m.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)
		return rev
	}
	tr, err := backend.ParseTrailer(res.Stdout)
	if err != nil {
		rev.Error = err.Error()
		m.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)
		return rev
	}

	if !tr.Success {
		rev.Error = tr.Error
	} else {
		rev.Success = true
		rev.RevisionID = int64(tr.RevisionID)
		rev.Message = tr.Message
		rev.ModerationState = tr.ModerationState
		rev.ReviewURL = m.rec.nodeReviewURL(ctx, nid, rev.RevisionID)
	}
	m.rec.record(op, nodeTarget(nid), field, oldValue, newValue, reason, rev)

	if rev.Success {
		m.rec.logger.Info("tag operation applied",
			zap.String("operation", op),
			zap.Int64("nid", nid),
			zap.Int64("revision_id", rev.RevisionID))
	} else {
		m.rec.logger.Warn("tag operation failed",
			zap.String("operation", op),
			zap.Int64("nid", nid),
			zap.String("error", rev.Error))
	}
	return rev
}

func termRef(id int64) string {
	return fmt.Sprintf("term:%d", id)
}
