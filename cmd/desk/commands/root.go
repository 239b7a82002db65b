package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	dbPath     string
	password   string
	verbose    bool
	jsonOutput bool
)

// active is the environment setup prepared for the running command. It
// outlives the command so teardown also runs when RunE fails.
var active *appEnv

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return execute(ctx, newRootCommand(version, commit, buildDate))
}

// execute runs rootCmd and then flushes telemetry, whether or not the
// command succeeded.
func execute(ctx context.Context, rootCmd *cobra.Command) error {
	active = nil
	err := rootCmd.ExecuteContext(ctx)

	if terr := teardown(ctx); terr != nil {
		if err == nil {
			return terr
		}
		log.Warn().Err(terr).Msg("Failed to flush telemetry")
	}
	return err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "desk",
		Short: "Community relations desk",
		Long: `desk keeps the records of a school community-relations coordinator:
partners, the action plan, events and an archive of generated reports.

Features:
  - Local SQLite file that repairs its own schema
  - Manual mirror of every table to a spreadsheet (push and pull)
  - WhatsApp messages, formal letters and periodic reports
  - Dashboard statistics and recommendations`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, version)
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file (overrides PERSISTENT_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "admin password (or DESK_PASSWORD)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newPartnerCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newEventCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newMessageCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newSyncCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newBackupCommand())
	rootCmd.AddCommand(newRestoreCommand())
	rootCmd.AddCommand(newHashPasswordCommand())

	return rootCmd
}

// setup loads the configuration, builds telemetry and logs the caller in.
// Everything it creates travels in the command context.
func setup(cmd *cobra.Command, version string) error {
	cfg, err := config.Load(configPath, version)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	tel, err := telemetry.NewTelemetry(&cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	pw := password
	if pw == "" {
		pw = os.Getenv("DESK_PASSWORD")
	}
	sess, err := session.Login(cfg.AdminPasswordHash, pw)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tel.WithContext(ctx)
	ctx = session.WithSession(ctx, sess)
	env := &appEnv{cfg: cfg, tel: tel}
	active = env
	ctx = withEnv(ctx, env)
	cmd.SetContext(ctx)

	log.Debug().
		Str("db", cfg.Database.Path).
		Str("role", string(sess.Role)).
		Bool("sync", cfg.SyncEnabled()).
		Msg("Configuration loaded")
	return nil
}

// teardown writes the metrics textfile and flushes spans of the command
// that just ran. It is a no-op when setup never completed.
func teardown(ctx context.Context) error {
	env := active
	active = nil
	if env == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return env.tel.Shutdown(context.WithoutCancel(ctx))
}
