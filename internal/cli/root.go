package cli

import (
	"fmt"

	"github.com/lazypower/notekeeper/internal/config"
	"github.com/lazypower/notekeeper/internal/regen"
	"github.com/lazypower/notekeeper/internal/store"
	"github.com/lazypower/notekeeper/internal/vault"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "notekeeper",
	Short: "Regenerate markdown notes without losing your edits",
	Long: "Notekeeper merges freshly rendered notes into an existing vault, keeping the " +
		"frontmatter, callout edits, paragraphs and attachments you added by hand.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.notekeeper/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(regenCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(pushCmd)
}

// loadConfig loads and validates configuration for a command.
func loadConfig(requireVault bool) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(requireVault); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openDB opens the configured database, defaulting to ~/.notekeeper/notekeeper.db.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func newRegenerator(cfg config.Config, db *store.DB) (*regen.Regenerator, error) {
	rg, err := regen.New(db, vault.New(cfg.Vault.Root), cfg.Vault.AttachmentsFolder)
	if err != nil {
		return nil, err
	}
	rg.Options = cfg.MergeOptions()
	rg.Compress = cfg.Snapshots.Compress
	return rg, nil
}

// setup loads config and opens the database and regenerator for commands
// that touch the vault. The returned func releases them.
func setup() (config.Config, *regen.Regenerator, func(), error) {
	cfg, err := loadConfig(true)
	if err != nil {
		return cfg, nil, nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	rg, err := newRegenerator(cfg, db)
	if err != nil {
		db.Close()
		return cfg, nil, nil, err
	}
	return cfg, rg, func() {
		rg.Stop()
		db.Close()
	}, nil
}
