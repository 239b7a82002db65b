package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/content"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newPartnerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "partner",
		Aliases: []string{"partners"},
		Short:   "Manage community partners",
	}

	cmd.AddCommand(newPartnerAddCommand())
	cmd.AddCommand(newPartnerListCommand())
	cmd.AddCommand(newPartnerUpdateCommand())
	cmd.AddCommand(newPartnerDeleteCommand())
	cmd.AddCommand(newPartnerEventsCommand())

	return cmd
}

// partnerFlags are the editable partner fields.
type partnerFlags struct {
	name      string
	kind      string
	expertise string
	level     string
	phone     string
}

func (f *partnerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.kind, "type", "", "participation type (educational, financial, professional, volunteer, initiative_support)")
	cmd.Flags().StringVar(&f.expertise, "expertise", "", "field of expertise")
	cmd.Flags().StringVar(&f.level, "level", "", "interaction level (low, medium, high)")
	cmd.Flags().StringVar(&f.phone, "phone", "", "mobile number")
}

// apply copies the flags the user set onto p.
func (f *partnerFlags) apply(cmd *cobra.Command, p *stores.Partner) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = f.name
	}
	if flags.Changed("type") {
		p.ParticipationType = stores.ParticipationType(f.kind).Canonical()
	}
	if flags.Changed("expertise") {
		p.Expertise = f.expertise
	}
	if flags.Changed("level") {
		p.InteractionLevel = stores.InteractionLevel(f.level).Canonical()
	}
	if flags.Changed("phone") {
		phone := f.phone
		p.Phone = &phone
		if phone == "" {
			p.Phone = nil
		}
	}
}

func newPartnerAddCommand() *cobra.Command {
	var flags partnerFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new partner",
		Example: `  desk partner add --name "Ahmed" --type volunteer --level high
  desk partner add --name "سارة" --type "دعم تعليمي" --phone 0551234567`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p := &stores.Partner{}
			flags.apply(cmd, p)
			if err := config.ValidateStruct(p); err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.CreatePartner(ctx, p); err != nil {
					return err
				}
				log.Info().Int64("id", p.ID).Str("name", p.Name).Msg("Partner saved")
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved partner %d: %s\n", p.ID, p.Name)
				return nil
			})
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPartnerListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List partners",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store *stores.SQLiteStore) error {
				partners, err := store.ListPartners(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, partners)
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tEXPERTISE\tLEVEL\tPHONE")
				for _, p := range partners {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						p.ID, p.Name, p.ParticipationType.Label(), p.Expertise, p.InteractionLevel.Label(), optional(p.Phone))
				}
				return tw.Flush()
			})
		},
	}
}

func newPartnerUpdateCommand() *cobra.Command {
	var flags partnerFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a partner's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				p, err := store.GetPartner(ctx, id)
				if err != nil {
					return err
				}
				p.ParticipationType = p.ParticipationType.Canonical()
				p.InteractionLevel = p.InteractionLevel.Canonical()
				flags.apply(cmd, p)
				if err := config.ValidateStruct(p); err != nil {
					return err
				}
				if err := store.UpdatePartner(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated partner %d\n", p.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newPartnerDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a partner (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := session.RequireAdmin(ctx, "delete_partner"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.DeletePartner(ctx, id); err != nil {
					return err
				}
				log.Info().Int64("id", id).Msg("Partner deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted partner %d\n", id)
				return nil
			})
		},
	}
}

func newPartnerEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events <id>",
		Short: "List the events that mention a partner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				p, err := store.GetPartner(ctx, id)
				if err != nil {
					return err
				}
				events, err := store.ListEvents(ctx)
				if err != nil {
					return err
				}

				matched := content.EventsForPartner(p, events)
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, matched)
				}
				return printEvents(out, matched)
			})
		},
	}
}
