package ops

import (
	"context"
	"fmt"

	"drupaledit/internal/backend"
)

// fakeScript plays the remote-CLI backend with scripted eval outputs,
// consumed first in first out.
type fakeScript struct {
	node      *backend.Node
	nodeErr   error
	outputs   []string
	evalErr   error
	evalCalls []string
	siteURL   string
}

func (f *fakeScript) Kind() backend.Kind                        { return backend.KindTerminus }
func (f *fakeScript) Authenticate(ctx context.Context) error    { return nil }
func (f *fakeScript) Authenticated() bool                       { return true }
func (f *fakeScript) Close() error                              { return nil }
func (f *fakeScript) SiteURL(ctx context.Context) (string, error) {
	if f.siteURL == "" {
		return "https://dev-site.pantheonsite.io", nil
	}
	return f.siteURL, nil
}

func (f *fakeScript) GetNode(ctx context.Context, nid int64) (*backend.Node, error) {
	if f.nodeErr != nil {
		return nil, f.nodeErr
	}
	if f.node != nil {
		return f.node, nil
	}
	return &backend.Node{ID: backend.FlexInt(nid), Title: "Test node"}, nil
}

func (f *fakeScript) EvalPHP(ctx context.Context, php string) (*backend.ScriptResult, error) {
	f.evalCalls = append(f.evalCalls, php)
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	if len(f.outputs) == 0 {
		return nil, fmt.Errorf("fake: no scripted output for call %d", len(f.evalCalls))
	}
	out := f.outputs[0]
	f.outputs = f.outputs[1:]
	return &backend.ScriptResult{Stdout: out}, nil
}

// fakeForm plays the browser backend, recording form submissions.
type fakeForm struct {
	editCalls int
	editErr   error
	result    *backend.FormResult
}

func (f *fakeForm) Kind() backend.Kind                          { return backend.KindBrowser }
func (f *fakeForm) Authenticate(ctx context.Context) error      { return nil }
func (f *fakeForm) Authenticated() bool                         { return true }
func (f *fakeForm) Close() error                                { return nil }
func (f *fakeForm) SiteURL(ctx context.Context) (string, error) { return "https://edit.example.org", nil }

func (f *fakeForm) GetNode(ctx context.Context, nid int64) (*backend.Node, error) {
	return &backend.Node{ID: backend.FlexInt(nid), Title: "Form node"}, nil
}

func (f *fakeForm) EditNode(ctx context.Context, nid int64, changes map[string]string, state, reason string) (*backend.FormResult, error) {
	f.editCalls++
	if f.result != nil {
		return f.result, f.editErr
	}
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &backend.FormResult{
		URL:            fmt.Sprintf("https://edit.example.org/node/%d", nid),
		ScreenshotPath: fmt.Sprintf("screenshots/node_%d_after.png", nid),
	}, nil
}

var (
	_ backend.ScriptRunner = (*fakeScript)(nil)
	_ backend.FormDriver   = (*fakeForm)(nil)
)
