package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/glamour"

	"drupaledit/cmd/drupaledit/ui"
	"drupaledit/internal/client"
	"drupaledit/internal/config"
	"drupaledit/internal/ops"
)

// loadConfig reads the config file and layers flag overrides on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if siteFlag != "" {
		cfg.Terminus.Site = siteFlag
	}
	if envFlag != "" {
		cfg.Terminus.Env = envFlag
	}
	if changelogFlag != "" {
		cfg.ChangelogPath = changelogFlag
	}
	return cfg, nil
}

// newClient builds the editing session from config and flags. A config
// with no usable backend is fatal, surfacing as a non-zero exit.
func newClient() (*client.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := client.FromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// finishSession prints the session summary and saves the changelog
// when a path is configured.
func finishSession(c *client.Client, cfg *config.Config) {
	if c.Log.Len() == 0 {
		return
	}
	printMarkdown(c.Summary())

	if cfg.ChangelogPath == "" {
		return
	}
	if err := c.Log.Save(cfg.ChangelogPath); err != nil {
		fmt.Println(ui.Warn(fmt.Sprintf("could not save changelog: %v", err)))
		return
	}
	fmt.Println(ui.Note("changelog saved to " + cfg.ChangelogPath))
}

// printMarkdown renders markdown for the terminal, falling back to the
// raw text when rendering fails.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// printRevision reports one mutation result. Operational failures are
// printed, recorded, and do not change the exit code.
func printRevision(rev *ops.Revision) {
	if !rev.Success {
		fmt.Println(ui.Fail(fmt.Sprintf("node/%d: %s", rev.NID, rev.Error)))
		return
	}
	line := fmt.Sprintf("node/%d updated", rev.NID)
	if rev.RevisionID != 0 {
		line += fmt.Sprintf(" (revision %d)", rev.RevisionID)
	}
	if rev.ModerationState != "" {
		line += fmt.Sprintf(" state=%s", rev.ModerationState)
	}
	fmt.Println(ui.Ok(line))
	if rev.Message != "" {
		fmt.Println(ui.Note(rev.Message))
	}
	if rev.ReviewURL != "" {
		fmt.Println(ui.Note("review: " + rev.ReviewURL))
	}
	if rev.ScreenshotPath != "" {
		fmt.Println(ui.Note("screenshot: " + rev.ScreenshotPath))
	}
}

// parseID parses a positional entity id argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", what, arg)
	}
	return id, nil
}
