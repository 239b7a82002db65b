package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the database",
		Long: `Write a default desk.yaml and create the database file with every table.

Running init on an existing database only adds what is missing; no record
is ever removed.`,
		Example: `  # Create desk.yaml and community_relations.db
  desk init

  # Rewrite an existing desk.yaml with the defaults
  desk init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)
			out := cmd.OutOrStdout()

			log.Info().
				Str("config", configPath).
				Str("db", env.cfg.Database.Path).
				Msg("Initializing desk")

			if err := config.WriteDefault(configPath, force); err != nil {
				log.Warn().Err(err).Msg("Config file not written")
			} else {
				fmt.Fprintf(out, "✓ Wrote %s\n", configPath)
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.HealthCheck(ctx); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Database ready at %s\n", env.cfg.Database.Path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
