package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// backupsCmd manages the backup store from the command line.
var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect and manage the backup store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newBackupStore()
		if err != nil {
			return err
		}
		info, err := store.Info()
		if err != nil {
			return err
		}
		fmt.Printf("Backup directory: %s\n", info.Dir)
		fmt.Printf("Backups: %d (%d KiB)\n", info.Total, info.DiskUsageKiB)
		stems := make([]string, 0, len(info.PerFile))
		for stem := range info.PerFile {
			stems = append(stems, stem)
		}
		sort.Strings(stems)
		for _, stem := range stems {
			fmt.Printf("  %s: %d\n", stem, info.PerFile[stem])
		}
		return nil
	},
}

var backupsListCmd = &cobra.Command{
	Use:   "list [stem]",
	Short: "List backups, optionally for one file stem",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newBackupStore()
		if err != nil {
			return err
		}
		stem := ""
		if len(args) == 1 {
			stem = args[0]
		}
		backups, err := store.List(stem)
		if err != nil {
			return err
		}
		for _, b := range backups {
			fmt.Println(filepath.Base(b))
		}
		return nil
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore <backup> <target.gjf>",
	Short: "Restore a backup over a target file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		store, err := newBackupStore()
		if err != nil {
			return err
		}
		backupPath := args[0]
		if !strings.ContainsRune(backupPath, filepath.Separator) {
			backupPath = filepath.Join(store.Dir(), backupPath)
		}
		done, err := store.Restore(backupPath, args[1], force)
		if err != nil {
			return err
		}
		if !done {
			return fmt.Errorf("%s exists; use --force to overwrite", args[1])
		}
		fmt.Printf("Restored %s -> %s\n", filepath.Base(backupPath), args[1])
		return nil
	},
}

var backupsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old backups beyond the configured retention",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if !cmd.Flags().Changed("keep") {
			keep = cfg.KeepBackups
		}
		store, err := newBackupStore()
		if err != nil {
			return err
		}
		removed, err := store.Cleanup(keep)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d backup(s), keeping the newest %d\n", len(removed), keep)
		return nil
	},
}

func init() {
	backupsRestoreCmd.Flags().BoolP("force", "f", false, "overwrite the target if it exists")
	backupsCleanupCmd.Flags().Int("keep", 0, "number of backups to keep (default: configured retention)")
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	backupsCmd.AddCommand(backupsCleanupCmd)
}
