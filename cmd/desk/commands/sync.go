package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/sheets"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the tables to the spreadsheet",
		Long: `Mirror every table to its worksheet.

push replaces each worksheet with the local rows; empty tables are skipped.
pull imports each worksheet into its table when the table is empty.
pull --force replaces the local rows with the remote ones and needs the
admin password.

Sync only runs when one of these commands is invoked.`,
	}

	cmd.AddCommand(newSyncPushCommand())
	cmd.AddCommand(newSyncPullCommand())

	return cmd
}

func newSyncPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Publish every table to the spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			remote, err := env.remote()
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				syncer := sheets.NewSyncer(store, remote, sheets.WithTelemetry(env.tel))
				if !syncer.Enabled() {
					log.Warn().Msg("No SCRIPT_URL or workbook configured, sync disabled")
				}

				report := syncer.PushAll(ctx)
				if err := printSyncReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return report.Err()
			})
		},
	}
}

func newSyncPullCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Import the spreadsheet into empty tables",
		Example: `  desk sync pull
  desk sync pull --force --password "$ADMIN_PASSWORD"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			remote, err := env.remote()
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				syncer := sheets.NewSyncer(store, remote, sheets.WithTelemetry(env.tel))
				if !syncer.Enabled() {
					log.Warn().Msg("No SCRIPT_URL or workbook configured, sync disabled")
				}

				report, err := syncer.PullAll(ctx, force)
				if err != nil {
					return err
				}
				if err := printSyncReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return report.Err()
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace local rows with the remote ones (admin)")

	return cmd
}

func printSyncReport(w io.Writer, report *sheets.RunReport) error {
	if jsonOutput {
		type result struct {
			sheets.TableResult
			Error string `json:"error,omitempty"`
		}
		out := struct {
			*sheets.RunReport
			Results []result `json:"results"`
		}{RunReport: report}
		for _, r := range report.Results {
			res := result{TableResult: r}
			if r.Err != nil {
				res.Error = r.Err.Error()
			}
			out.Results = append(out.Results, res)
		}
		return printJSON(w, out)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "TABLE\tSHEET\tROWS\tRESULT")
	for _, r := range report.Results {
		var outcome string
		switch {
		case r.Err != nil:
			outcome = "✗ " + r.Err.Error()
		case r.Skipped:
			outcome = "- " + r.Reason
		default:
			outcome = "✓"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Table, r.Sheet, r.Rows, outcome)
	}
	return tw.Flush()
}
