package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drupaledit/cmd/drupaledit/ui"
)

var testAuthCmd = &cobra.Command{
	Use:   "test-auth",
	Short: "Verify the configured backend can authenticate",
	Long: `Resolves the backend from config and environment, authenticates, and
reports the site URL it would edit. Missing configuration is fatal;
a rejected login is reported as a failure.`,
	RunE: runTestAuth,
}

func runTestAuth(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Println(ui.Note(fmt.Sprintf("backend: %s", c.BackendKind())))
	if err := c.Authenticate(ctx); err != nil {
		fmt.Println(ui.Fail("authentication failed: " + err.Error()))
		return nil
	}

	fmt.Println(ui.Ok("authenticated"))
	if url, err := c.SiteURL(ctx); err == nil && url != "" {
		fmt.Println(ui.Note("site: " + url))
	}
	return nil
}
