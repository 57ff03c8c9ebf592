package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drupaledit/internal/changelog"
)

var (
	summaryFile  string
	summaryPlain bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Render a saved session changelog",
	Long: `Loads a changelog saved with --changelog and renders it as a
Slack-ready markdown summary, or as plain text with --plain.`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFile, "file", "changes.json", "Changelog file to render")
	summaryCmd.Flags().BoolVar(&summaryPlain, "plain", false, "Render plain text instead of markdown")
}

func runSummary(cmd *cobra.Command, args []string) error {
	export, err := changelog.Load(summaryFile)
	if err != nil {
		return err
	}

	if summaryPlain {
		fmt.Print(export.PlainText())
		return nil
	}
	printMarkdown(export.Markdown())
	return nil
}
