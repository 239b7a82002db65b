package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/content"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"reports"},
		Short:   "Generate and browse periodic reports",
	}

	cmd.AddCommand(newReportGenerateCommand())
	cmd.AddCommand(newReportListCommand())
	cmd.AddCommand(newReportShowCommand())

	return cmd
}

func newReportGenerateCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the periodic report",
		Long: `Generate the formal periodic report from the current records.

With --save the report is archived. Archived reports are never changed.`,
		Example: `  desk report generate
  desk report generate --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				stats, err := content.ComputeStats(ctx, store)
				if err != nil {
					return err
				}

				now := time.Now()
				text, err := content.PeriodicReport(env.sender(), stats, now)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, text)

				if !save {
					return nil
				}

				report := &stores.Report{
					ReportDate:    now.Format(stores.TimestampLayout),
					ReportContent: text,
				}
				if err := store.CreateReport(ctx, report); err != nil {
					return err
				}
				log.Info().Int64("id", report.ID).Msg("Report archived")
				fmt.Fprintf(out, "✓ Archived report %d\n", report.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "archive the generated report")

	return cmd
}

func newReportListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store *stores.SQLiteStore) error {
				reports, err := store.ListReports(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, reports)
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tDATE\tSIZE")
				for _, r := range reports {
					fmt.Fprintf(tw, "%d\t%s\t%d\n", r.ID, r.ReportDate, len([]rune(r.ReportContent)))
				}
				return tw.Flush()
			})
		},
	}
}

func newReportShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				report, err := store.GetReport(ctx, id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.ReportContent)
				return nil
			})
		},
	}
}
