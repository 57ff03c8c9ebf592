package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"drupaledit/cmd/drupaledit/ui"
	"drupaledit/internal/client"
	"drupaledit/internal/ops"
)

var (
	tagField      string
	tagTermID     int64
	tagTermName   string
	tagVocabulary string
	tagReason     string
	tagPropose    bool

	replaceOldID int64
	replaceNewID int64
)

var addTagCmd = &cobra.Command{
	Use:   "add-tag [nid]",
	Short: "Add a taxonomy term to a node's tag field",
	Long: `Adds a term to the node's tag field in a new draft revision. Adding a
term that is already present succeeds without creating a revision.

The term is given either by id or by name within a vocabulary. With
--propose, a term name that does not exist is recorded as a proposal
for a human to create instead of failing.

Requires the terminus backend.

Example:
  drupaledit add-tag 123 --field field_tags --term-id 42
  drupaledit add-tag 123 --field field_tags --term "Local News" --vocabulary categories`,
	Args: cobra.ExactArgs(1),
	RunE: runAddTag,
}

var removeTagCmd = &cobra.Command{
	Use:   "remove-tag [nid]",
	Short: "Remove a taxonomy term from a node's tag field",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoveTag,
}

var replaceTagCmd = &cobra.Command{
	Use:   "replace-tag [nid]",
	Short: "Swap one taxonomy term for another in a single revision",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplaceTag,
}

var listTermsCmd = &cobra.Command{
	Use:   "list-terms [vocabulary]",
	Short: "List every term in a vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE:  runListTerms,
}

func init() {
	for _, cmd := range []*cobra.Command{addTagCmd, removeTagCmd} {
		cmd.Flags().StringVar(&tagField, "field", "field_tags", "Tag field machine name")
		cmd.Flags().Int64Var(&tagTermID, "term-id", 0, "Term id")
		cmd.Flags().StringVar(&tagTermName, "term", "", "Term name (needs --vocabulary)")
		cmd.Flags().StringVar(&tagVocabulary, "vocabulary", "", "Vocabulary machine name for --term")
		cmd.Flags().StringVar(&tagReason, "reason", "", "Why this change is being made")
	}
	addTagCmd.Flags().BoolVar(&tagPropose, "propose", false, "Record missing terms as proposals instead of failing")

	replaceTagCmd.Flags().StringVar(&tagField, "field", "field_tags", "Tag field machine name")
	replaceTagCmd.Flags().Int64Var(&replaceOldID, "old-term-id", 0, "Term id to remove (required)")
	replaceTagCmd.Flags().Int64Var(&replaceNewID, "new-term-id", 0, "Term id to add (required)")
	replaceTagCmd.Flags().StringVar(&tagReason, "reason", "", "Why this change is being made")
	_ = replaceTagCmd.MarkFlagRequired("old-term-id")
	_ = replaceTagCmd.MarkFlagRequired("new-term-id")
}

// resolveTerm turns the --term-id/--term flags into a term id. With
// --propose a missing name is recorded and reported with id 0.
func resolveTerm(ctx context.Context, c *client.Client, nid int64) (int64, bool, error) {
	if tagTermID != 0 {
		return tagTermID, false, nil
	}
	if tagTermName == "" {
		return 0, false, fmt.Errorf("pass --term-id or --term with --vocabulary")
	}
	if tagVocabulary == "" {
		return 0, false, fmt.Errorf("--term needs --vocabulary")
	}

	id, err := c.Taxonomy.TermID(ctx, tagVocabulary, tagTermName)
	if err == nil {
		return id, false, nil
	}
	if errors.Is(err, ops.ErrTermNotFound) && tagPropose {
		c.Taxonomy.ProposeTerm(tagVocabulary, tagTermName, tagReason)
		c.Taxonomy.ProposeNodeTag(nid, tagField, tagTermName, tagVocabulary, tagReason)
		return 0, true, nil
	}
	return 0, false, err
}

func runAddTag(cmd *cobra.Command, args []string) error {
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

	termID, proposed, err := resolveTerm(ctx, c, nid)
	if err != nil {
		return err
	}
	if proposed {
		fmt.Println(ui.Warn(fmt.Sprintf("term %q not found in %s, recorded as a proposal", tagTermName, tagVocabulary)))
		finishSession(c, cfg)
		return nil
	}

	rev := c.Taxonomy.AddTag(ctx, nid, tagField, termID, tagReason)
	printRevision(rev)
	finishSession(c, cfg)
	return nil
}

func runRemoveTag(cmd *cobra.Command, args []string) error {
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

	termID, _, err := resolveTerm(ctx, c, nid)
	if err != nil {
		return err
	}

	rev := c.Taxonomy.RemoveTag(ctx, nid, tagField, termID, tagReason)
	printRevision(rev)
	finishSession(c, cfg)
	return nil
}

func runReplaceTag(cmd *cobra.Command, args []string) error {
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

	rev := c.Taxonomy.ReplaceTag(ctx, nid, tagField, replaceOldID, replaceNewID, tagReason)
	printRevision(rev)
	finishSession(c, cfg)
	return nil
}

func runListTerms(cmd *cobra.Command, args []string) error {
	c, _, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	terms, err := c.Taxonomy.Terms(ctx, args[0])
	if err != nil {
		return err
	}
	if len(terms) == 0 {
		fmt.Println(ui.Note(fmt.Sprintf("vocabulary %q has no terms", args[0])))
		return nil
	}

	fmt.Println(ui.TitleStyle.Render(args[0]))
	for _, term := range terms {
		indent := ""
		for i := 0; i < term.Depth; i++ {
			indent += "  "
		}
		fmt.Printf("  %s%d\t%s\n", indent, int64(term.ID), term.Name)
	}
	return nil
}
