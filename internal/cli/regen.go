package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lazypower/notekeeper/internal/manifest"
	"github.com/lazypower/notekeeper/internal/regen"
	"github.com/spf13/cobra"
)

// --- regen command ---

var regenFresh string

var regenCmd = &cobra.Command{
	Use:   "regen NOTE",
	Short: "Regenerate a vault note from a fresh render",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegen,
}

func runRegen(cmd *cobra.Command, args []string) error {
	fresh, err := os.ReadFile(regenFresh)
	if err != nil {
		return fmt.Errorf("read fresh: %w", err)
	}

	_, rg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	out, err := rg.Regenerate(cmd.Context(), args[0], string(fresh))
	if err != nil {
		return err
	}
	printOutcome(cmd, out)
	return nil
}

func printOutcome(cmd *cobra.Command, out *regen.Outcome) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s", out.Path, out.Status)
	if out.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (run %s)", out.RunID)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "  preserved: %d paragraphs, %d attachments, %d blocks",
		out.PreservedParagraphCount, out.PreservedAttachmentCount, out.PreservedBlockCount)
	if len(out.PreservedFrontmatterKeys) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", keys: %s", strings.Join(out.PreservedFrontmatterKeys, ", "))
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

// --- apply command ---

var (
	applyManifest string
	applyWorkers  int
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Regenerate every note listed in a JSONL manifest",
	Args:  cobra.NoArgs,
	RunE:  runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	items, err := manifest.ParseFile(applyManifest)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Manifest has no entries.")
		return nil
	}

	cfg, rg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	workers := applyWorkers
	if workers <= 0 {
		workers = cfg.Watch.Workers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := rg.Apply(ctx, items, workers)
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Path, res.Outcome.Status)
	}

	counts := regen.Summarize(results)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d written, %d unchanged, %d failed\n",
		counts["written"], counts["unchanged"], counts["failed"])
	if counts["failed"] > 0 {
		return fmt.Errorf("%d of %d notes failed", counts["failed"], len(results))
	}
	return nil
}

func init() {
	regenCmd.Flags().StringVar(&regenFresh, "fresh", "", "freshly rendered note file")
	regenCmd.MarkFlagRequired("fresh")

	applyCmd.Flags().StringVar(&applyManifest, "manifest", "", "JSONL manifest of {path, fresh|fresh_file}")
	applyCmd.Flags().IntVar(&applyWorkers, "workers", 0, "parallel regenerations (default from config)")
	applyCmd.MarkFlagRequired("manifest")
}
