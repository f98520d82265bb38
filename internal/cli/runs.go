package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/notekeeper/internal/store"
	"github.com/spf13/cobra"
)

// --- runs command ---

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [NOTE]",
	Short: "List recent merge runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	notePath := ""
	if len(args) > 0 {
		notePath = args[0]
	}
	runs, err := db.ListRuns(notePath, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	for _, r := range runs {
		ts := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04:05")
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-9s  %s\n", r.ID, ts, r.Status, r.NotePath)
		if r.Status != store.RunRestored {
			fmt.Fprintf(cmd.OutOrStdout(), "    %d paragraphs, %d attachments, %d blocks",
				r.PreservedParagraphs, r.PreservedAttachments, r.PreservedBlocks)
			if len(r.PreservedKeys) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", keys: %s", strings.Join(r.PreservedKeys, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	return nil
}

// --- restore command ---

var restoreCmd = &cobra.Command{
	Use:   "restore RUN_ID",
	Short: "Put back the note content a run overwrote",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	_, rg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	out, err := rg.Restore(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: restored from run %s (undo with: notekeeper restore %s)\n",
		out.Path, args[0], out.RunID)
	return nil
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
}
