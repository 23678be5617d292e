package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/unclebandit/deskagent/internal/export"
)

var exportDir *string

func init() {
	exportDir = exportCmd.Flags().String("dir", "", "Directory to write the workbook to (defaults to EXPORTS_DIR).")
	rootCmd.AddCommand(backupCmd, backupsCmd, exportCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copies the store to a timestamped backup and prunes old ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := backups.Backup()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
		return nil
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Lists existing backups, oldest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := backups.List()
		if err != nil {
			return err
		}
		t := newTable(cmd.OutOrStdout(), table.Row{"#", "Backup"})
		for i, p := range paths {
			t.AppendRow(table.Row{i + 1, filepath.Base(p)})
		}
		t.Render()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [--dir <path>]",
	Short: "Writes every campaign to an xlsx workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		campaigns, err := repo.Load()
		if err != nil {
			return err
		}
		dir := *exportDir
		if dir == "" {
			dir = cfg.ExportsDir
		}
		path, err := export.ToFile(campaigns, dir, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d campaign(s) to %s\n", len(campaigns), path)
		return nil
	},
}
