package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// BrowserConfig configures the admin-UI backend.
type BrowserConfig struct {
	BaseURL  string
	Username string
	Password string

	// Headless defaults to true; set false to watch the browser work.
	Headless bool

	// ScreenshotsDir receives before/after captures. Empty disables
	// screenshots.
	ScreenshotsDir string

	// BrowserBin overrides the browser binary rod launches.
	BrowserBin string

	// NavigationTimeout bounds each page load, default 30s.
	NavigationTimeout time.Duration
}

// Browser reaches Drupal by logging into the admin UI with a headless
// browser and driving node edit forms. It is the fallback when no
// Pantheon access exists, and cannot run server-side scripts.
type Browser struct {
	cfg    BrowserConfig
	logger *zap.Logger

	mu            sync.Mutex
	launch        *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	authenticated bool
}

// NewBrowser creates the backend without starting a browser; the
// browser launches on first Authenticate.
func NewBrowser(cfg BrowserConfig, logger *zap.Logger) *Browser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	return &Browser{cfg: cfg, logger: logger}
}

func (b *Browser) Kind() Kind { return KindBrowser }

func (b *Browser) start(ctx context.Context) error {
	if b.browser != nil {
		return nil
	}

	l := launcher.New().Headless(b.cfg.Headless)
	if b.cfg.BrowserBin != "" {
		l = l.Bin(b.cfg.BrowserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("open page: %w", err)
	}
	err = (&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            900,
		DeviceScaleFactor: 1,
	}).Call(page)
	if err != nil {
		b.logger.Warn("set viewport failed", zap.Error(err))
	}

	b.launch = l
	b.browser = browser
	b.page = page
	return nil
}

// Authenticate logs in through /user/login and verifies the session by
// looking for the logout link or the admin toolbar.
func (b *Browser) Authenticate(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.authenticated {
		return nil
	}
	if err := b.start(ctx); err != nil {
		return err
	}

	loginURL := b.cfg.BaseURL + "/user/login"
	b.logger.Debug("logging in", zap.String("url", loginURL))

	page := b.page.Context(ctx)
	if err := page.Timeout(b.cfg.NavigationTimeout).Navigate(loginURL); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for login page: %w", err)
	}

	if err := b.fill(page, `input[name="name"]`, b.cfg.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}
	if err := b.fill(page, `input[name="pass"]`, b.cfg.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}
	if err := b.click(page, `input[type="submit"], button[type="submit"]`); err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait after login: %w", err)
	}

	loggedIn, _, err := page.Has(`a[href*="/user/logout"], #toolbar-administration`)
	if err != nil {
		return fmt.Errorf("check login state: %w", err)
	}
	if !loggedIn {
		shot, _ := b.screenshot("login_failed")
		if shot != "" {
			b.logger.Warn("login failed", zap.String("screenshot", shot))
		}
		return fmt.Errorf("login rejected for %s at %s", b.cfg.Username, b.cfg.BaseURL)
	}

	b.authenticated = true
	b.logger.Info("browser session authenticated", zap.String("site", b.cfg.BaseURL))
	return nil
}

// Authenticated reports whether a login has succeeded this session.
func (b *Browser) Authenticated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authenticated
}

// SiteURL returns the configured base URL.
func (b *Browser) SiteURL(ctx context.Context) (string, error) {
	return b.cfg.BaseURL, nil
}

// GetNode reads what the edit form exposes: the title field and, when
// present, the current moderation state.
func (b *Browser) GetNode(ctx context.Context, nid int64) (*Node, error) {
	if err := b.Authenticate(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	page := b.page.Context(ctx)
	editURL := fmt.Sprintf("%s/node/%d/edit", b.cfg.BaseURL, nid)
	if err := page.Timeout(b.cfg.NavigationTimeout).Navigate(editURL); err != nil {
		return nil, fmt.Errorf("load edit form: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for edit form: %w", err)
	}

	hasTitle, titleEl, err := page.Has(`input[name="title[0][value]"]`)
	if err != nil {
		return nil, fmt.Errorf("inspect edit form: %w", err)
	}
	if !hasTitle {
		return nil, fmt.Errorf("node %d: %w", nid, ErrNodeNotFound)
	}

	node := &Node{ID: FlexInt(nid)}
	if v, err := titleEl.Property("value"); err == nil {
		node.Title = v.String()
	}
	hasState, stateEl, err := page.Has(`select[name="moderation_state[0][state]"]`)
	if err == nil && hasState {
		if v, err := stateEl.Property("value"); err == nil {
			node.ModerationState = v.String()
		}
	}
	return node, nil
}

// EditNode fills the node edit form and saves it. Fields with no
// matching form control are reported in MissingFields rather than
// failing the whole edit.
func (b *Browser) EditNode(ctx context.Context, nid int64, changes map[string]string, state, reason string) (*FormResult, error) {
	if err := b.Authenticate(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	page := b.page.Context(ctx)
	editURL := fmt.Sprintf("%s/node/%d/edit", b.cfg.BaseURL, nid)
	if err := page.Timeout(b.cfg.NavigationTimeout).Navigate(editURL); err != nil {
		return nil, fmt.Errorf("load edit form: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for edit form: %w", err)
	}

	result := &FormResult{URL: editURL}
	if shot, err := b.screenshot(fmt.Sprintf("node_%d_before", nid)); err == nil {
		result.BeforePath = shot
	}

	for field, value := range changes {
		if !b.fillField(page, field, value) {
			result.MissingFields = append(result.MissingFields, field)
			b.logger.Warn("no form control for field",
				zap.Int64("nid", nid), zap.String("field", field))
		}
	}

	if state != "" {
		hasState, stateEl, err := page.Has(`select[name="moderation_state[0][state]"]`)
		if err == nil && hasState {
			sel := fmt.Sprintf(`option[value=%q]`, state)
			if err := stateEl.Select([]string{sel}, true, rod.SelectorTypeCSSSector); err != nil {
				b.logger.Warn("select moderation state failed",
					zap.String("state", state), zap.Error(err))
			}
		}
	}

	if reason != "" {
		hasLog, logEl, err := page.Has(`textarea[name="revision_log[0][value]"]`)
		if err == nil && hasLog {
			_ = logEl.SelectAllText()
			_ = logEl.Input(reason)
		}
	}

	if err := b.click(page, `input[id="edit-submit"], input[type="submit"][value="Save"], button[type="submit"]`); err != nil {
		return result, fmt.Errorf("save edit form: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return result, fmt.Errorf("wait after save: %w", err)
	}

	if shot, err := b.screenshot(fmt.Sprintf("node_%d_after", nid)); err == nil {
		result.ScreenshotPath = shot
	}
	if info, err := page.Info(); err == nil {
		result.URL = info.URL
	}

	saved, _, err := page.Has(`.messages--status, .messages.status`)
	if err != nil {
		return result, fmt.Errorf("check save status: %w", err)
	}
	if !saved {
		return result, fmt.Errorf("no status message after saving node %d", nid)
	}
	return result, nil
}

// fillField tries the common Drupal widget selectors for a field, most
// specific first.
func (b *Browser) fillField(page *rod.Page, field, value string) bool {
	for _, sel := range fieldSelectors(field) {
		has, el, err := page.Has(sel)
		if err != nil || !has {
			continue
		}
		_ = el.SelectAllText()
		if err := el.Input(value); err != nil {
			b.logger.Warn("input failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

func fieldSelectors(field string) []string {
	return []string{
		fmt.Sprintf(`textarea[name="%s[0][value]"]`, field),
		fmt.Sprintf(`input[name="%s[0][value]"]`, field),
		fmt.Sprintf(`textarea[name=%q]`, field),
		fmt.Sprintf(`input[name=%q]`, field),
	}
}

func (b *Browser) fill(page *rod.Page, selector, value string) error {
	el, err := page.Timeout(b.cfg.NavigationTimeout).Element(selector)
	if err != nil {
		return err
	}
	_ = el.SelectAllText()
	return el.Input(value)
}

func (b *Browser) click(page *rod.Page, selector string) error {
	el, err := page.Timeout(b.cfg.NavigationTimeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// screenshot captures the viewport into ScreenshotsDir and returns the
// file path. Disabled when no directory is configured.
func (b *Browser) screenshot(name string) (string, error) {
	if b.cfg.ScreenshotsDir == "" || b.page == nil {
		return "", nil
	}
	data, err := b.page.Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(b.cfg.ScreenshotsDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshots dir: %w", err)
	}
	path := filepath.Join(b.cfg.ScreenshotsDir, screenshotFile(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func screenshotFile(name string) string {
	return fmt.Sprintf("%s_%s.png", name, time.Now().Format("150405"))
}

// Close shuts down the browser and its launcher.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
		b.page = nil
	}
	if b.launch != nil {
		b.launch.Cleanup()
		b.launch = nil
	}
	b.authenticated = false
	return err
}
