// Package backend abstracts the two ways of reaching a Drupal site:
// remote drush over the Pantheon terminus CLI, and driving the admin
// UI in a headless browser.
package backend

import (
	"context"
	"errors"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindTerminus Kind = "terminus"
	KindBrowser  Kind = "browser"
)

var (
	// ErrNotAuthenticated is returned by operations that require a
	// prior successful Authenticate.
	ErrNotAuthenticated = errors.New("backend is not authenticated")

	// ErrNodeNotFound is returned when a node id does not resolve.
	ErrNodeNotFound = errors.New("node not found")
)

// Node is the subset of a Drupal node the editing operations need.
type Node struct {
	ID              FlexInt `json:"nid"`
	UUID            string  `json:"uuid,omitempty"`
	Type            string  `json:"type,omitempty"`
	Title           string  `json:"title"`
	Published       bool    `json:"published"`
	ModerationState string  `json:"moderation_state,omitempty"`
}

// Backend is the capability set shared by every implementation.
// Operations that need more discover it through ScriptRunner or
// FormDriver type assertions rather than inspecting concrete types.
type Backend interface {
	Kind() Kind
	Authenticate(ctx context.Context) error
	Authenticated() bool

	// SiteURL returns the public base URL of the site, used to build
	// review links.
	SiteURL(ctx context.Context) (string, error)

	GetNode(ctx context.Context, nid int64) (*Node, error)

	Close() error
}

// ScriptResult holds the raw output of a server-side script run.
type ScriptResult struct {
	Stdout string
	Stderr string
}

// ScriptRunner is the capability of executing PHP inside the Drupal
// runtime. Only the remote-CLI backend has it.
type ScriptRunner interface {
	Backend
	EvalPHP(ctx context.Context, php string) (*ScriptResult, error)
}

// FormResult reports a completed admin-form submission. BeforePath is
// the pre-edit screenshot, ScreenshotPath the post-save one; either may
// be empty when screenshots are disabled or the edit fails early.
type FormResult struct {
	URL            string
	BeforePath     string
	ScreenshotPath string
	MissingFields  []string
}

// FormDriver is the capability of editing content through the admin
// UI. Only the browser backend has it.
type FormDriver interface {
	Backend

	// EditNode opens the node edit form, replaces the given fields,
	// optionally selects a moderation state, records the reason as the
	// revision log message, and saves.
	EditNode(ctx context.Context, nid int64, changes map[string]string, state, reason string) (*FormResult, error)
}
