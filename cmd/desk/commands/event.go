package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newEventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "Manage community events",
	}

	cmd.AddCommand(newEventAddCommand())
	cmd.AddCommand(newEventListCommand())
	cmd.AddCommand(newEventUpdateCommand())
	cmd.AddCommand(newEventDeleteCommand())

	return cmd
}

// eventFlags are the editable event fields.
type eventFlags struct {
	name      string
	date      string
	location  string
	attendees int
	rating    int
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "event name")
	cmd.Flags().StringVar(&f.date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().IntVar(&f.attendees, "attendees", 0, "number of attendees")
	cmd.Flags().IntVar(&f.rating, "rating", 0, "rating from 1 to 5, 0 clears it")
}

func (f *eventFlags) apply(cmd *cobra.Command, e *stores.Event) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		e.Name = f.name
	}
	if flags.Changed("date") {
		e.Date = f.date
	}
	if flags.Changed("location") {
		e.Location = f.location
	}
	if flags.Changed("attendees") {
		e.AttendeesCount = f.attendees
	}
	if flags.Changed("rating") {
		rating := f.rating
		e.Rating = &rating
		if rating == 0 {
			e.Rating = nil
		}
	}
}

func newEventAddCommand() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record an event",
		Example: `  desk event add --name "Open Day" --date 2025-03-12 --location Hall --attendees 120 --rating 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			e := &stores.Event{}
			flags.apply(cmd, e)
			if err := config.ValidateStruct(e); err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.CreateEvent(ctx, e); err != nil {
					return err
				}
				log.Info().Int64("id", e.ID).Str("name", e.Name).Msg("Event saved")
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved event %d: %s\n", e.ID, e.Name)
				return nil
			})
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newEventListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store *stores.SQLiteStore) error {
				events, err := store.ListEvents(ctx)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(cmd.OutOrStdout(), events)
				}
				return printEvents(cmd.OutOrStdout(), events)
			})
		},
	}
}

func printEvents(w io.Writer, events []*stores.Event) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tLOCATION\tATTENDEES\tRATING")
	for _, e := range events {
		rating := ""
		if e.Rating != nil {
			rating = strconv.Itoa(*e.Rating)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", e.ID, e.Name, e.Date, e.Location, e.AttendeesCount, rating)
	}
	return tw.Flush()
}

func newEventUpdateCommand() *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				e, err := store.GetEvent(ctx, id)
				if err != nil {
					return err
				}
				flags.apply(cmd, e)
				if err := config.ValidateStruct(e); err != nil {
					return err
				}
				if err := store.UpdateEvent(ctx, e); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated event %d\n", e.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newEventDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an event (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := session.RequireAdmin(ctx, "delete_event"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.DeleteEvent(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted event %d\n", id)
				return nil
			})
		},
	}
}
