// Package ui provides the visual styling for drupaledit's CLI output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Semantic colors
var (
	Success     = lipgloss.Color("#8BC34A")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Destructive).Bold(true)
	WarnStyle    = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Info)
	MutedStyle   = lipgloss.NewStyle().Faint(true)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Ok renders a success line.
func Ok(s string) string { return SuccessStyle.Render("✓ " + s) }

// Fail renders a failure line.
func Fail(s string) string { return ErrorStyle.Render("✗ " + s) }

// Warn renders a warning line.
func Warn(s string) string { return WarnStyle.Render("! " + s) }

// Note renders a muted detail line.
func Note(s string) string { return MutedStyle.Render("  " + s) }
