package backend

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drupaledit/internal/runner"
)

// stubRunner scripts responses per leading argument and records every
// command it sees.
type stubRunner struct {
	calls     []runner.Command
	responses map[string]*runner.Result
	err       error
}

func (s *stubRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	s.calls = append(s.calls, cmd)
	if s.err != nil {
		return nil, s.err
	}
	if res, ok := s.responses[cmd.Args[0]]; ok {
		return res, nil
	}
	return &runner.Result{}, nil
}

func newTestTerminus(cfg TerminusConfig, stub *stubRunner) *Terminus {
	t := NewTerminus(cfg, nil)
	t.run = stub
	return t
}

func TestAuthenticateReusesExistingSession(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com\n"},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site", Env: "dev"}, stub)

	require.NoError(t, term.Authenticate(context.Background()))
	assert.True(t, term.Authenticated())
	require.Len(t, stub.calls, 1, "a valid session must not trigger a login")

	// Second call is a no-op.
	require.NoError(t, term.Authenticate(context.Background()))
	assert.Len(t, stub.calls, 1)
}

func TestAuthenticateFallsBackToMachineToken(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {ExitCode: 1, Stderr: "You are not logged in."},
		"auth:login":  {Stdout: "Logged in via machine token."},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site", MachineToken: "tok_abc"}, stub)

	require.NoError(t, term.Authenticate(context.Background()))
	require.Len(t, stub.calls, 2)
	assert.Equal(t, []string{"auth:login", "--machine-token=tok_abc"}, stub.calls[1].Args)
}

func TestAuthenticateNoSessionNoToken(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {ExitCode: 1},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site"}, stub)

	err := term.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PANTHEON_MACHINE_TOKEN")
	assert.False(t, term.Authenticated())
}

func TestEvalPHPCommandShape(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com"},
		"drush":       {Stdout: `{"success":true}`},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site", Env: "live"}, stub)

	res, err := term.EvalPHP(context.Background(), `print json_encode(['success' => TRUE]);`)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, res.Stdout)

	drush := stub.calls[len(stub.calls)-1]
	assert.Equal(t, "terminus", drush.Binary)
	require.True(t, len(drush.Args) >= 5)
	assert.Equal(t, []string{"drush", "my-site.live", "--", "php:eval"}, drush.Args[:4])

	// The PHP travels base64-wrapped inside an eval shim.
	wrapper := drush.Args[4]
	assert.True(t, strings.HasPrefix(wrapper, `eval(base64_decode("`))
	start := strings.Index(wrapper, `"`) + 1
	end := strings.LastIndex(wrapper, `"`)
	decoded, err := base64.StdEncoding.DecodeString(wrapper[start:end])
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "json_encode")
}

func TestEvalPHPTimeout(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com"},
		"drush":       {Killed: true, KillReason: "timeout after 2m0s"},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site"}, stub)

	_, err := term.EvalPHP(context.Background(), "print 1;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestEvalPHPNonZeroExit(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com"},
		"drush":       {ExitCode: 1, Stderr: "Drush command terminated abnormally.\nmore detail"},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site"}, stub)

	_, err := term.EvalPHP(context.Background(), "print 1;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited 1")
	assert.Contains(t, err.Error(), "Drush command terminated abnormally.")
}

func TestGetNode(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com"},
		"drush": {Stdout: "[notice] cache rebuilt\n" +
			`{"success":true,"nid":"123","uuid":"abc-def","type":"article","title":"Hello","published":true,"moderation_state":"published"}`},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site"}, stub)

	node, err := term.GetNode(context.Background(), 123)
	require.NoError(t, err)
	assert.Equal(t, FlexInt(123), node.ID)
	assert.Equal(t, "article", node.Type)
	assert.Equal(t, "Hello", node.Title)
	assert.True(t, node.Published)
	assert.Equal(t, "published", node.ModerationState)
}

func TestGetNodeNotFound(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"auth:whoami": {Stdout: "editor@example.com"},
		"drush":       {Stdout: `{"success":false,"error":"node not found"}`},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site"}, stub)

	_, err := term.GetNode(context.Background(), 999)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSiteURLFromEnvView(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"env:view": {Stdout: "https://custom.example.org/\n"},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site", Env: "dev"}, stub)

	url, err := term.SiteURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://custom.example.org", url)

	// Cached on second call.
	_, err = term.SiteURL(context.Background())
	require.NoError(t, err)
	assert.Len(t, stub.calls, 1)
}

func TestSiteURLFallback(t *testing.T) {
	stub := &stubRunner{responses: map[string]*runner.Result{
		"env:view": {ExitCode: 1},
	}}
	term := newTestTerminus(TerminusConfig{Site: "my-site", Env: "live"}, stub)

	url, err := term.SiteURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://live-my-site.pantheonsite.io", url)
}

func TestSiteEnvDefaultsDev(t *testing.T) {
	term := NewTerminus(TerminusConfig{Site: "my-site"}, nil)
	assert.Equal(t, "my-site.dev", term.SiteEnv())
}
