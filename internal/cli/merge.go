package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/lazypower/notekeeper/internal/merge"
	"github.com/spf13/cobra"
)

var (
	mergeExisting string
	mergeFresh    string
	mergeFolder   string
	mergeOut      string
	mergeStats    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a fresh render into an existing note and print the result",
	Long: "Merge reads two files and prints the merged note. Nothing in the vault or " +
		"database is touched. A missing --existing file is treated as an empty note.",
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeExisting, "existing", "", "current note file")
	mergeCmd.Flags().StringVar(&mergeFresh, "fresh", "", "freshly rendered note file")
	mergeCmd.Flags().StringVar(&mergeFolder, "folder", "", "generator attachment folder (default from config)")
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "write the merged note here instead of stdout")
	mergeCmd.Flags().BoolVar(&mergeStats, "stats", false, "print preserved counts to stderr")
	mergeCmd.MarkFlagRequired("fresh")
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	fresh, err := os.ReadFile(mergeFresh)
	if err != nil {
		return fmt.Errorf("read fresh: %w", err)
	}
	var existing []byte
	if mergeExisting != "" {
		existing, err = os.ReadFile(mergeExisting)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read existing: %w", err)
		}
	}

	folder := mergeFolder
	if !cmd.Flags().Changed("folder") {
		folder = cfg.Vault.AttachmentsFolder
	}

	result := merge.PreserveWithOptions(string(existing), string(fresh), folder, cfg.MergeOptions())

	if mergeOut != "" {
		if err := os.WriteFile(mergeOut, []byte(result.Content), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), result.Content)
	}

	if mergeStats {
		fmt.Fprintf(cmd.ErrOrStderr(), "paragraphs: %d\nattachments: %d\nblocks: %d\nfrontmatter keys: %s\n",
			result.PreservedParagraphCount, result.PreservedAttachmentCount,
			result.PreservedBlockCount, strings.Join(result.PreservedFrontmatterKeys, ", "))
	}
	return nil
}
