package cli

import (
	"fmt"
	"os"

	"github.com/lazypower/notekeeper/internal/client"
	"github.com/spf13/cobra"
)

var pushFresh string

var pushCmd = &cobra.Command{
	Use:   "push NOTE",
	Short: "Send a fresh render to a running server",
	Long:  "Push asks the server at NOTEKEEPER_URL to regenerate NOTE, so writes go through the server's per-note locking.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	fresh, err := os.ReadFile(pushFresh)
	if err != nil {
		return fmt.Errorf("read fresh: %w", err)
	}

	c := client.New()
	if !c.Healthy() {
		return fmt.Errorf("server not reachable; start it with `notekeeper serve`")
	}
	out, err := c.Regenerate(args[0], string(fresh))
	if err != nil {
		return err
	}
	printOutcome(cmd, out)
	return nil
}

func init() {
	pushCmd.Flags().StringVar(&pushFresh, "fresh", "", "freshly rendered note file")
	pushCmd.MarkFlagRequired("fresh")
}
