package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drupaledit/cmd/drupaledit/ui"
)

var (
	updateField  string
	updateValue  string
	updateSet    map[string]string
	updateState  string
	updateReason string
)

var updateNodeCmd = &cobra.Command{
	Use:   "update-node [nid]",
	Short: "Replace field values on a node as a new draft revision",
	Long: `Creates a new unpublished revision of the node with the given field
values. The published revision is never touched; the draft lands in a
moderation state for an editor to review.

Example:
  drupaledit update-node 123 --field body --value "Corrected text" --reason "typo fix"
  drupaledit update-node 123 --set title="New title" --set field_summary="..." `,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateNode,
}

var (
	frField   string
	frFind    string
	frReplace string
	frReason  string
)

var findReplaceCmd = &cobra.Command{
	Use:   "find-replace [nid]",
	Short: "Replace every occurrence of a string in one field",
	Long: `Reads the current field value, replaces every occurrence of the search
text, and saves the result as a draft revision. When the search text is
absent the node is left untouched and nothing is recorded.

Example:
  drupaledit find-replace 123 --field body --find recieve --replace receive`,
	Args: cobra.ExactArgs(1),
	RunE: runFindReplace,
}

var getNodeCmd = &cobra.Command{
	Use:   "get-node [nid]",
	Short: "Show a node's basic metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetNode,
}

func init() {
	updateNodeCmd.Flags().StringVar(&updateField, "field", "", "Field machine name to update")
	updateNodeCmd.Flags().StringVar(&updateValue, "value", "", "New field value")
	updateNodeCmd.Flags().StringToStringVar(&updateSet, "set", nil, "field=value pair, repeatable")
	updateNodeCmd.Flags().StringVar(&updateState, "state", "", "Moderation state for the draft (default suggestion)")
	updateNodeCmd.Flags().StringVar(&updateReason, "reason", "", "Why this change is being made")

	findReplaceCmd.Flags().StringVar(&frField, "field", "body", "Field machine name to search")
	findReplaceCmd.Flags().StringVar(&frFind, "find", "", "Text to search for (required)")
	findReplaceCmd.Flags().StringVar(&frReplace, "replace", "", "Replacement text")
	findReplaceCmd.Flags().StringVar(&frReason, "reason", "", "Why this change is being made")
	_ = findReplaceCmd.MarkFlagRequired("find")
}

func runUpdateNode(cmd *cobra.Command, args []string) error {
	nid, err := parseID(args[0], "node id")
	if err != nil {
		return err
	}

	changes := map[string]string{}
	for k, v := range updateSet {
		changes[k] = v
	}
	if updateField != "" {
		changes[updateField] = updateValue
	}
	if len(changes) == 0 {
		return fmt.Errorf("nothing to change: pass --field/--value or --set field=value")
	}

	c, cfg, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if updateState != "" {
		c.Nodes.ModerationState = updateState
	}
	rev := c.Nodes.CreateDraftRevision(ctx, nid, changes, updateReason)
	printRevision(rev)
	finishSession(c, cfg)
	return nil
}

func runFindReplace(cmd *cobra.Command, args []string) error {
	nid, err := parseID(args[0], "node id")
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

	rev := c.Nodes.FindAndReplace(ctx, nid, frField, frFind, frReplace, frReason)
	printRevision(rev)
	finishSession(c, cfg)
	return nil
}

func runGetNode(cmd *cobra.Command, args []string) error {
	nid, err := parseID(args[0], "node id")
	if err != nil {
		return err
	}

	c, _, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	node, err := c.Nodes.Get(ctx, nid)
	if err != nil {
		return err
	}

	fmt.Println(ui.TitleStyle.Render(fmt.Sprintf("node/%d", int64(node.ID))))
	fmt.Printf("  title:      %s\n", node.Title)
	if node.Type != "" {
		fmt.Printf("  type:       %s\n", node.Type)
	}
	if node.UUID != "" {
		fmt.Printf("  uuid:       %s\n", node.UUID)
	}
	fmt.Printf("  published:  %t\n", node.Published)
	if node.ModerationState != "" {
		fmt.Printf("  moderation: %s\n", node.ModerationState)
	}
	return nil
}
