package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/content"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newMessageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Write messages, letters and initiative drafts",
	}

	cmd.AddCommand(newWhatsAppCommand())
	cmd.AddCommand(newLetterCommand())
	cmd.AddCommand(newInitiativeCommand())

	return cmd
}

// messageFlags select who and what a message is about.
type messageFlags struct {
	kind      string
	partnerID int64
	eventID   int64
	to        string
	subject   string
}

func (f *messageFlags) register(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().StringVar(&f.kind, "kind", defaultKind, "invitation, thanks or reminder")
	cmd.Flags().Int64Var(&f.partnerID, "partner", 0, "partner id to address")
	cmd.Flags().Int64Var(&f.eventID, "event", 0, "event id the message is about")
	cmd.Flags().StringVar(&f.to, "to", "", "recipient name when no partner is given")
	cmd.Flags().StringVar(&f.subject, "subject", "", "event or contribution when no event is given")
}

// resolve fills MessageData from the flags, reading the partner and event
// from the store when ids are given.
func (f *messageFlags) resolve(cmd *cobra.Command, store *stores.SQLiteStore) (content.MessageData, error) {
	ctx := cmd.Context()
	data := content.MessageData{
		Sender:    envFrom(ctx).sender(),
		Recipient: f.to,
		Subject:   f.subject,
	}

	if f.partnerID != 0 {
		p, err := store.GetPartner(ctx, f.partnerID)
		if err != nil {
			return data, err
		}
		data.Recipient = p.Name
	}

	if f.eventID != 0 {
		e, err := store.GetEvent(ctx, f.eventID)
		if err != nil {
			return data, err
		}
		data.Subject = e.Name
		data.Date = e.Date
		data.EventDate = e.Date
		data.Location = e.Location
	}

	return data, nil
}

func newWhatsAppCommand() *cobra.Command {
	var flags messageFlags

	cmd := &cobra.Command{
		Use:   "whatsapp",
		Short: "Write a WhatsApp message",
		Example: `  desk message whatsapp --kind invitation --partner 1 --event 2
  desk message whatsapp --kind thanks --to "Ahmed"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store *stores.SQLiteStore) error {
				data, err := flags.resolve(cmd, store)
				if err != nil {
					return err
				}
				msg, err := content.WhatsAppMessage(content.Kind(flags.kind), data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}

	flags.register(cmd, string(content.KindInvitation))

	return cmd
}

func newLetterCommand() *cobra.Command {
	var flags messageFlags

	cmd := &cobra.Command{
		Use:     "letter",
		Short:   "Write a formal thanks or invitation letter",
		Example: `  desk message letter --kind thanks --partner 1 --subject "دعم معرض الكتاب"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(store *stores.SQLiteStore) error {
				data, err := flags.resolve(cmd, store)
				if err != nil {
					return err
				}
				// The letter is dated today; the event keeps its own date.
				data.Date = ""
				letter, err := content.Letter(content.Kind(flags.kind), data, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), letter)
				return nil
			})
		},
	}

	flags.register(cmd, string(content.KindThanks))

	return cmd
}

func newInitiativeCommand() *cobra.Command {
	var challenge string

	cmd := &cobra.Command{
		Use:     "initiative",
		Short:   "Draft an initiative for a school challenge",
		Example: `  desk message initiative --challenge "ضعف القراءة"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store *stores.SQLiteStore) error {
				partners, err := store.ListPartners(ctx)
				if err != nil {
					return err
				}

				// Only engaged partners are suggested.
				var engaged []*stores.Partner
				for _, p := range partners {
					if p.InteractionLevel.Canonical() == stores.InteractionHigh {
						engaged = append(engaged, p)
					}
				}

				draft, err := content.InitiativeDraft(challenge, engaged)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), draft)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&challenge, "challenge", "", "the challenge the school faces")
	_ = cmd.MarkFlagRequired("challenge")

	return cmd
}
