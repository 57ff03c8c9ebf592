package backend

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"drupaledit/internal/runner"
)

// commandRunner is the slice of runner.Runner terminus needs. Tests
// substitute a recording stub.
type commandRunner interface {
	Run(ctx context.Context, cmd runner.Command) (*runner.Result, error)
}

// TerminusConfig configures the remote-CLI backend.
type TerminusConfig struct {
	Site         string
	Env          string
	MachineToken string

	// BinPath overrides the terminus binary, default "terminus".
	BinPath string

	// CommandTimeout bounds each remote drush call.
	CommandTimeout time.Duration
}

// Terminus reaches Drupal by evaluating PHP remotely through
// `terminus drush <site>.<env> -- php:eval`. Authentication is the
// Pantheon machine token; content credentials never leave the server.
type Terminus struct {
	cfg    TerminusConfig
	run    commandRunner
	logger *zap.Logger

	mu            sync.Mutex
	authenticated bool
	siteURL       string
}

// NewTerminus creates the backend. Env defaults to "dev" when empty.
func NewTerminus(cfg TerminusConfig, logger *zap.Logger) *Terminus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.BinPath == "" {
		cfg.BinPath = "terminus"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = runner.DefaultTimeout
	}
	return &Terminus{
		cfg:    cfg,
		run:    runner.New(logger.Named("runner")),
		logger: logger,
	}
}

func (t *Terminus) Kind() Kind { return KindTerminus }

// SiteEnv returns the site.env pair terminus commands address.
func (t *Terminus) SiteEnv() string {
	return t.cfg.Site + "." + t.cfg.Env
}

// Authenticate verifies an existing terminus session and falls back to
// a machine-token login. An already-valid session is reused without
// touching the token.
func (t *Terminus) Authenticate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.authenticated {
		return nil
	}

	res, err := t.run.Run(ctx, runner.Command{
		Binary:  t.cfg.BinPath,
		Args:    []string{"auth:whoami"},
		Timeout: 30 * time.Second,
	})
	if err == nil && res.Ok() && strings.TrimSpace(res.Stdout) != "" {
		t.logger.Debug("terminus session already valid",
			zap.String("identity", strings.TrimSpace(res.Stdout)))
		t.authenticated = true
		return nil
	}

	if t.cfg.MachineToken == "" {
		return fmt.Errorf("terminus is not logged in and no machine token is configured: run 'terminus auth:login' or set PANTHEON_MACHINE_TOKEN")
	}

	t.logger.Info("logging in to terminus with machine token")
	res, err = t.run.Run(ctx, runner.Command{
		Binary:  t.cfg.BinPath,
		Args:    []string{"auth:login", "--machine-token=" + t.cfg.MachineToken},
		Timeout: 60 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("terminus login: %w", err)
	}
	if !res.Ok() {
		return fmt.Errorf("terminus login failed: %s", firstLine(res.Stderr))
	}

	t.authenticated = true
	return nil
}

// Authenticated reports whether a login has succeeded this session.
func (t *Terminus) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authenticated
}

// drush runs a drush subcommand against the configured site.env.
func (t *Terminus) drush(ctx context.Context, args ...string) (*runner.Result, error) {
	all := append([]string{"drush", t.SiteEnv(), "--"}, args...)
	return t.run.Run(ctx, runner.Command{
		Binary:  t.cfg.BinPath,
		Args:    all,
		Timeout: t.cfg.CommandTimeout,
	})
}

// EvalPHP executes PHP inside the remote Drupal runtime. The source is
// base64-wrapped so shell and drush argument parsing cannot mangle it.
func (t *Terminus) EvalPHP(ctx context.Context, php string) (*ScriptResult, error) {
	if !t.Authenticated() {
		if err := t.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	encoded := encodePHP(php)
	res, err := t.drush(ctx, "php:eval", fmt.Sprintf("eval(base64_decode(%q));", encoded))
	if err != nil {
		return nil, fmt.Errorf("drush php:eval: %w", err)
	}
	if res.Killed {
		return nil, fmt.Errorf("drush php:eval %s: %s", t.SiteEnv(), res.KillReason)
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("drush php:eval exited %d: %s", res.ExitCode, firstLine(res.Stderr))
	}
	return &ScriptResult{Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

const phpGetNode = `
$nid = (int) $input['nid'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
$out = [
  'success' => TRUE,
  'nid' => $node->id(),
  'uuid' => $node->uuid(),
  'type' => $node->bundle(),
  'title' => $node->getTitle(),
  'published' => $node->isPublished(),
];
if ($node->hasField('moderation_state')) {
  $out['moderation_state'] = $node->get('moderation_state')->value;
}
print json_encode($out);
`

// GetNode loads basic node metadata.
func (t *Terminus) GetNode(ctx context.Context, nid int64) (*Node, error) {
	php, err := WrapPayload(phpGetNode, map[string]any{"nid": nid})
	if err != nil {
		return nil, err
	}
	res, err := t.EvalPHP(ctx, php)
	if err != nil {
		return nil, err
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Node
	}
	if err := ParseTrailerInto(res.Stdout, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		if out.Error == "node not found" {
			return nil, fmt.Errorf("node %d: %w", nid, ErrNodeNotFound)
		}
		return nil, fmt.Errorf("get node %d: %s", nid, out.Error)
	}
	return &out.Node, nil
}

// SiteURL resolves the environment's public URL, falling back to the
// standard Pantheon hostname when `terminus env:view` is unavailable.
func (t *Terminus) SiteURL(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.siteURL != "" {
		url := t.siteURL
		t.mu.Unlock()
		return url, nil
	}
	t.mu.Unlock()

	url := fmt.Sprintf("https://%s-%s.pantheonsite.io", t.cfg.Env, t.cfg.Site)
	res, err := t.run.Run(ctx, runner.Command{
		Binary:  t.cfg.BinPath,
		Args:    []string{"env:view", t.SiteEnv(), "--print"},
		Timeout: 30 * time.Second,
	})
	if err == nil && res.Ok() {
		if printed := strings.TrimSpace(res.Stdout); printed != "" {
			url = strings.TrimRight(firstLine(printed), "/")
		}
	} else {
		t.logger.Debug("env:view unavailable, using pantheonsite.io hostname",
			zap.String("site_env", t.SiteEnv()))
	}

	t.mu.Lock()
	t.siteURL = url
	t.mu.Unlock()
	return url, nil
}

// Close is a no-op; terminus sessions live outside the process.
func (t *Terminus) Close() error { return nil }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
