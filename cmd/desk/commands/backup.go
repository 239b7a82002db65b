package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newBackupCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the database",
		Long: `Write a consistent copy of the database file (hot copy with VACUUM INTO).

The destination must not exist yet.`,
		Example: `  desk backup
  desk backup --out /mnt/usb/desk-2025-06-30.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if outFile == "" {
				outFile = fmt.Sprintf("community_relations-%s.db", time.Now().Format("20060102-150405"))
			}

			log.Info().Str("out", outFile).Msg("Creating backup")

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.Backup(ctx, outFile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup written to %s\n", outFile)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "backup output file (default: timestamped name)")

	return cmd
}
