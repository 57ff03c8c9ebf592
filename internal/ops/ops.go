// Package ops implements the content editing operations: draft
// revisions, find and replace, taxonomy tagging, and media alt text.
// Every attempted mutation lands in the session changelog, successful
// or not.
package ops

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
)

// placeholderOld marks records where the previous field value was not
// fetched before the edit.
const placeholderOld = "(previous value)"

// Revision reports one attempted content mutation. Failures carry the
// error text instead of returning a Go error so the caller always has
// a result to present, mirroring what the changelog stores.
type Revision struct {
	NID             int64
	RevisionID      int64
	ModerationState string
	ReviewURL       string
	ScreenshotPath  string
	Message         string
	Success         bool
	Error           string
}

// recorder bundles the dependencies every editor shares.
type recorder struct {
	backend backend.Backend
	log     *changelog.Log
	logger  *zap.Logger
}

func newRecorder(b backend.Backend, log *changelog.Log, logger *zap.Logger) recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return recorder{backend: b, log: log, logger: logger}
}

// record appends one changelog entry for a field-level mutation attempt.
func (r *recorder) record(op, target, field, oldValue, newValue, reason string, rev *Revision) {
	r.log.Append(changelog.Record{
		Backend:        string(r.backend.Kind()),
		Operation:      op,
		Target:         target,
		Field:          field,
		OldValue:       oldValue,
		NewValue:       newValue,
		Reason:         reason,
		RevisionID:     rev.RevisionID,
		ReviewURL:      rev.ReviewURL,
		ScreenshotPath: rev.ScreenshotPath,
		Success:        rev.Success,
		Error:          rev.Error,
	})
}

// nodeReviewURL builds the review link for a draft revision. With a
// revision id the link points at that revision; the browser backend
// never reports one, so those edits link to the latest draft instead.
func (r *recorder) nodeReviewURL(ctx context.Context, nid, rid int64) string {
	base, err := r.backend.SiteURL(ctx)
	if err != nil || base == "" {
		r.logger.Debug("no site url for review link", zap.Int64("nid", nid))
		return ""
	}
	if rid > 0 {
		return fmt.Sprintf("%s/node/%d/revisions/%d/view", base, nid, rid)
	}
	return fmt.Sprintf("%s/node/%d/latest", base, nid)
}

func nodeTarget(nid int64) string {
	return fmt.Sprintf("node/%d", nid)
}
