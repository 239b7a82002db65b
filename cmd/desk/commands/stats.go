package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/content"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"dashboard"},
		Short:   "Show the dashboard figures and recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store *stores.SQLiteStore) error {
				stats, err := content.ComputeStats(ctx, store)
				if err != nil {
					return err
				}
				recs := content.Recommendations(stats)

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, struct {
						*content.Stats
						Recommendations []string `json:"recommendations"`
					}{stats, recs})
				}

				tw := newTable(out)
				fmt.Fprintf(tw, "Partners\t%d\n", stats.Partners)
				fmt.Fprintf(tw, "High interaction\t%d (%.1f%%)\n", stats.HighInteraction, stats.EngagementRate)
				if stats.TopParticipation != "" {
					fmt.Fprintf(tw, "Top participation\t%s\n", stats.TopParticipation.Label())
				}
				fmt.Fprintf(tw, "Plan items\t%d (completed %d, in progress %d, deferred %d)\n",
					stats.PlanTotal, stats.Completed, stats.InProgress, stats.Deferred)
				fmt.Fprintf(tw, "Events\t%d (%d attendees)\n", stats.Events, stats.TotalAttendees)
				if stats.RatedEvents > 0 {
					fmt.Fprintf(tw, "Average rating\t%.1f/5\n", stats.AverageRating)
				}
				fmt.Fprintf(tw, "Archived reports\t%d\n", stats.Reports)
				if err := tw.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(out)
				for _, r := range recs {
					fmt.Fprintf(out, "• %s\n", r)
				}
				return nil
			})
		},
	}
}
