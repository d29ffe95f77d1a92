package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gjfed/cmd/gjfed/ui"
	"gjfed/internal/backup"
	"gjfed/internal/catalog"
	"gjfed/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	backupDir  string

	cfg    config.Config
	cat    *catalog.Catalog
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gjfed",
	Short: "gjfed - Gaussian input keyword editor",
	Long: `gjfed edits the route (keyword) lines of Gaussian .gjf input files.

It parses each --LinkN-- section's #p line into structured keywords, checks
the combination against a compatibility catalog (mutually exclusive pairs,
required companions, recommendations), and writes a corrected line back,
taking a timestamped backup before every overwrite.

Run without arguments to start the interactive editor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Verbose = true
		}
		if backupDir != "" {
			cfg.BackupDir = backupDir
		}

		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{"stderr"}
		if cfg.Verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfg.CatalogPath != "" {
			cat, err = catalog.LoadFile(cfg.CatalogPath)
			if err != nil {
				return err
			}
			logger.Debug("catalog loaded", zap.String("path", cfg.CatalogPath))
		} else {
			cat = catalog.Default()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor()
	},
}

// runEditor launches the interactive wizard.
func runEditor() error {
	store, err := backup.NewStore(cfg.BackupDir, logger)
	if err != nil {
		return err
	}
	return ui.Run(ui.Deps{
		Catalog: cat,
		Backups: store,
		Logger:  logger,
		Theme:   cfg.Theme,
	})
}

func newBackupStore() (*backup.Store, error) {
	return backup.NewStore(cfg.BackupDir, logger)
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "", "backup directory override")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(backupsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
