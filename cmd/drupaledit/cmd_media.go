package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drupaledit/cmd/drupaledit/ui"
)

var (
	altText   string
	altReason string
)

var updateAltCmd = &cobra.Command{
	Use:   "update-alt [mid]",
	Short: "Update the alt text on a media entity's image",
	Long: `Sets the alt text on the media entity's image field, trying the common
field names (field_media_image, image, field_image) in order.

Requires the terminus backend.

Example:
  drupaledit update-alt 88 --alt "A red bicycle against a wall"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateAlt,
}

func init() {
	updateAltCmd.Flags().StringVar(&altText, "alt", "", "New alt text (required)")
	updateAltCmd.Flags().StringVar(&altReason, "reason", "", "Why this change is being made")
	_ = updateAltCmd.MarkFlagRequired("alt")
}

func runUpdateAlt(cmd *cobra.Command, args []string) error {
	mid, err := parseID(args[0], "media id")
	if err != nil {
		return err
	}

	c, cfg, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res := c.Media.UpdateAltText(ctx, mid, altText, altReason)
	if !res.Success {
		fmt.Println(ui.Fail(fmt.Sprintf("media/%d: %s", res.MID, res.Error)))
	} else {
		fmt.Println(ui.Ok(fmt.Sprintf("media/%d alt text updated (was %q)", res.MID, res.OldAlt)))
		if res.ReviewURL != "" {
			fmt.Println(ui.Note("review: " + res.ReviewURL))
		}
	}
	finishSession(c, cfg)
	return nil
}
