package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newRestoreCommand() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the database with a backup (admin)",
		Long: `Replace the database file with a backup taken by "desk backup".

The backup is copied first and only the copy is brought up to date, so the
file given to --from is left untouched.`,
		Example: `  desk restore --from community_relations-20250630-101500.db --password "$ADMIN_PASSWORD"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := session.RequireAdmin(ctx, "restore"); err != nil {
				return err
			}
			env := envFrom(ctx)
			target := env.cfg.Database.Path
			staged := target + ".restore"

			log.Info().Str("from", fromFile).Str("db", target).Msg("Restoring backup")

			if err := copyFile(fromFile, staged); err != nil {
				return err
			}

			staging, err := stores.NewSQLiteStore(stores.Config{Path: staged, BusyTimeout: env.cfg.Database.BusyTimeout})
			if err != nil {
				return err
			}
			if err := staging.Init(ctx); err != nil {
				_ = os.Remove(staged)
				return err
			}
			if err := staging.EnsureSchema(ctx); err != nil {
				_ = staging.Close()
				removeWithSidecars(staged)
				return fmt.Errorf("backup is not a usable database: %w", err)
			}
			// Closing the last connection checkpoints the WAL into the file.
			if err := staging.Close(); err != nil {
				removeWithSidecars(staged)
				return fmt.Errorf("failed to close staged copy: %w", err)
			}

			for _, suffix := range []string{"-wal", "-shm"} {
				if err := os.Remove(target + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to remove %s: %w", target+suffix, err)
				}
			}
			if err := os.Rename(staged, target); err != nil {
				return fmt.Errorf("failed to replace database: %w", err)
			}
			removeWithSidecars(staged)

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored %s from %s\n", target, fromFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "backup file to restore")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// copyFile copies src to dst, replacing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup not readable: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy backup: %w", err)
	}
	return out.Close()
}

// removeWithSidecars deletes path and its -wal/-shm files, ignoring any
// that do not exist.
func removeWithSidecars(path string) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}
