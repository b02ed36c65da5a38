package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/suteetoe/ekklesia/internal/repository"
	"github.com/suteetoe/ekklesia/pkg/database"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup of every table",
	Long: `Export users, churches, metric definitions and settings to a timestamped
JSON file. Sessions and password hashes are not included.

EXAMPLES:

  ekklesia export                 # ./backups/ekklesia-backup-<timestamp>.json
  ekklesia export -d /var/backups`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.InitDB(&conf.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		now := time.Now()
		backup, err := repository.NewBackupRepository(db).Export(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		data, err := json.MarshalIndent(backup, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode backup: %w", err)
		}

		path, err := writeBackup(exportDir, now, data)
		if err != nil {
			return err
		}

		color.Green("✓ Exported %d rows to %s", backup.Rows(), path)
		fmt.Printf("  users: %d  churches: %d  metrics: %d  settings: %d\n",
			len(backup.Users), len(backup.Churches), len(backup.Metrics), len(backup.Settings))
		return nil
	},
}

func backupFileName(now time.Time) string {
	return fmt.Sprintf("ekklesia-backup-%s.json", now.UTC().Format("20060102-150405"))
}

func writeBackup(dir string, now time.Time, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(dir, backupFileName(now))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "backups", "directory the backup file is written to")
	rootCmd.AddCommand(exportCmd)
}
