// Package client assembles a backend, the entity editors, and the
// session changelog into one handle for the CLI to drive.
package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"drupaledit/internal/backend"
	"drupaledit/internal/changelog"
	"drupaledit/internal/config"
	"drupaledit/internal/ops"
)

// Client is one editing session against one site.
type Client struct {
	backend backend.Backend
	logger  *zap.Logger

	Log      *changelog.Log
	Nodes    *ops.NodeEditor
	Taxonomy *ops.TaxonomyManager
	Media    *ops.MediaEditor
}

// New wires a session around an already-constructed backend.
func New(b backend.Backend, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := changelog.New()
	return &Client{
		backend:  b,
		logger:   logger,
		Log:      log,
		Nodes:    ops.NewNodeEditor(b, log, logger.Named("nodes")),
		Taxonomy: ops.NewTaxonomyManager(b, log, logger.Named("taxonomy")),
		Media:    ops.NewMediaEditor(b, log, logger.Named("media")),
	}
}

// FromConfig resolves the backend from configuration and builds a
// session. config.ErrNoBackend surfaces unchanged for the CLI's fatal
// path.
func FromConfig(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kind, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	var b backend.Backend
	switch kind {
	case backend.KindTerminus:
		b = backend.NewTerminus(backend.TerminusConfig{
			Site:           cfg.Terminus.Site,
			Env:            cfg.Terminus.Env,
			MachineToken:   cfg.Terminus.MachineToken,
			BinPath:        cfg.Terminus.BinPath,
			CommandTimeout: cfg.TerminusTimeout(),
		}, logger.Named("terminus"))
	case backend.KindBrowser:
		b = backend.NewBrowser(backend.BrowserConfig{
			BaseURL:        cfg.Browser.BaseURL,
			Username:       cfg.Browser.Username,
			Password:       cfg.Browser.Password,
			Headless:       cfg.BrowserHeadless(),
			ScreenshotsDir: cfg.Browser.ScreenshotsDir,
			BrowserBin:     cfg.Browser.BrowserBin,
		}, logger.Named("browser"))
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}

	return New(b, logger), nil
}

// WithTerminus builds a remote-CLI session directly.
func WithTerminus(site, env string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return New(backend.NewTerminus(backend.TerminusConfig{Site: site, Env: env}, logger.Named("terminus")), logger)
}

// WithBrowser builds a browser session directly.
func WithBrowser(baseURL, username, password string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return New(backend.NewBrowser(backend.BrowserConfig{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		Headless: true,
	}, logger.Named("browser")), logger)
}

// Authenticate logs the backend in.
func (c *Client) Authenticate(ctx context.Context) error {
	return c.backend.Authenticate(ctx)
}

// BackendKind reports which backend this session uses.
func (c *Client) BackendKind() backend.Kind {
	return c.backend.Kind()
}

// SiteURL exposes the backend's site URL for display.
func (c *Client) SiteURL(ctx context.Context) (string, error) {
	return c.backend.SiteURL(ctx)
}

// Summary renders the session's changes as Slack-flavored markdown.
func (c *Client) Summary() string {
	e := c.Log.Export()
	return e.Markdown()
}

// Close releases backend resources.
func (c *Client) Close() error {
	return c.backend.Close()
}
