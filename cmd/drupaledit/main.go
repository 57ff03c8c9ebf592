package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose       bool
	cfgFile       string
	backendFlag   string
	siteFlag      string
	envFlag       string
	changelogFlag string
	timeout       time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "drupaledit",
	Short: "drupaledit - safe Drupal content editing from the command line",
	Long: `drupaledit edits Drupal content as draft revisions for human review.

It talks to the site one of two ways:
  - terminus: remote drush through the Pantheon terminus CLI (preferred)
  - browser:  headless-browser automation of the admin UI (fallback)

Every attempted change, successful or failed, is recorded in a session
changelog that renders as a Slack-ready summary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "drupaledit.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Backend to use: terminus or browser")
	rootCmd.PersistentFlags().StringVar(&siteFlag, "site", "", "Pantheon site machine name")
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "Pantheon environment (dev, test, live)")
	rootCmd.PersistentFlags().StringVar(&changelogFlag, "changelog", "", "Save the session changelog to this file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	// Add commands to root
	rootCmd.AddCommand(updateNodeCmd)
	rootCmd.AddCommand(findReplaceCmd)
	rootCmd.AddCommand(getNodeCmd)
	rootCmd.AddCommand(addTagCmd)
	rootCmd.AddCommand(removeTagCmd)
	rootCmd.AddCommand(replaceTagCmd)
	rootCmd.AddCommand(listTermsCmd)
	rootCmd.AddCommand(updateAltCmd)
	rootCmd.AddCommand(testAuthCmd)
	rootCmd.AddCommand(summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
