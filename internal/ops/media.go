package ops

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
)

// MediaResult reports an attempted media entity mutation.
type MediaResult struct {
	MID       int64
	OldAlt    string
	ReviewURL string
	Success   bool
	Error     string
}

// MediaEditor updates media entities. Like tag operations it needs the
// script-running backend.
type MediaEditor struct {
	rec recorder
}

// NewMediaEditor wires an editor to a backend and a session changelog.
func NewMediaEditor(b backend.Backend, log *changelog.Log, logger *zap.Logger) *MediaEditor {
	return &MediaEditor{rec: newRecorder(b, log, logger)}
}

// UpdateAltText sets the alt text on a media entity's image field,
// trying the common field names in order.
func (e *MediaEditor) UpdateAltText(ctx context.Context, mid int64, alt, reason string) *MediaResult {
	result := &MediaResult{MID: mid}
	target := fmt.Sprintf("media/%d", mid)
	record := func() {
		e.rec.log.Append(changelog.Record{
			Backend:   string(e.rec.backend.Kind()),
			Operation: "update_alt_text",
			Target:    target,
			Field:     "alt",
			OldValue:  result.OldAlt,
			NewValue:  alt,
			Reason:    reason,
			ReviewURL: result.ReviewURL,
			Success:   result.Success,
			Error:     result.Error,
		})
	}

	sr, ok := e.rec.backend.(backend.ScriptRunner)
	if !ok {
		result.Error = fmt.Sprintf("alt text updates require the %s backend, active backend is %s",
			backend.KindTerminus, e.rec.backend.Kind())
		record()
		return result
	}

	php, err := backend.WrapPayload(phpUpdateMediaAlt, map[string]any{
		"mid": mid, "alt": alt, "reason": reason,
	})
	if err != nil {
		result.Error = err.Error()
		record()
		return result
	}
	res, err := sr.EvalPHP(ctx, php)
	if err != nil {
		result.Error = err.Error()
		record()
		return result
	}

	var out struct {
		Success bool            `json:"success"`
		Error   string          `json:"error"`
		MID     backend.FlexInt `json:"mid"`
		Old     string          `json:"old"`
	}
	if err := backend.ParseTrailerInto(res.Stdout, &out); err != nil {
		result.Error = err.Error()
		record()
		return result
	}
	if !out.Success {
		result.Error = out.Error
		record()
		return result
	}

	result.Success = true
	result.OldAlt = out.Old
	if base, err := e.rec.backend.SiteURL(ctx); err == nil && base != "" {
		result.ReviewURL = fmt.Sprintf("%s/media/%d/edit", base, mid)
	}
	record()

	e.rec.logger.Info("alt text updated",
		zap.Int64("mid", mid), zap.String("alt", alt))
	return result
}
