package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/sheets"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newExportCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every table to an Excel workbook",
		Long: `Write every table to an .xlsx workbook, one worksheet per table, with the
same headers the spreadsheet sync publishes.`,
		Example: `  desk export --out community.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env := envFrom(ctx)

			log.Info().Str("out", outFile).Msg("Exporting workbook")

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				remote := sheets.NewWorkbookRemote(outFile)
				report := sheets.NewSyncer(store, remote, sheets.WithTelemetry(env.tel)).PushAll(ctx)
				if err := printSyncReport(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if err := report.Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", outFile)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "community_relations.xlsx", "workbook output file")

	return cmd
}
