package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lazypower/notekeeper/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate notes as renders appear in the render directory",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, rg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	if cfg.Watch.RenderDir == "" {
		return errors.New("watch.render_dir is not set (or NOTEKEEPER_RENDER_DIR)")
	}
	rg.StartPruneTimer(cfg.Snapshots.Retain)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "notekeeper watching %s\n", cfg.Watch.RenderDir)
	fmt.Fprintf(os.Stderr, "  vault: %s\n", cfg.Vault.Root)

	w := watch.New(cfg.Watch.RenderDir, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, rg)
	return w.Run(ctx)
}
