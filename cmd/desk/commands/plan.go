package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/communitydesk/communitydesk/pkg/apperrors"
	"github.com/communitydesk/communitydesk/pkg/config"
	"github.com/communitydesk/communitydesk/pkg/session"
	"github.com/communitydesk/communitydesk/pkg/stores"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the action plan",
	}

	cmd.AddCommand(newPlanAddCommand())
	cmd.AddCommand(newPlanListCommand())
	cmd.AddCommand(newPlanStatusCommand())
	cmd.AddCommand(newPlanUpdateCommand())
	cmd.AddCommand(newPlanDeleteCommand())

	return cmd
}

// planFlags are the editable action-plan fields.
type planFlags struct {
	objective string
	activity  string
	owner     string
	timeframe string
	kpi       string
	priority  string
	status    string
	taskType  string
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.objective, "objective", "", "objective")
	cmd.Flags().StringVar(&f.activity, "activity", "", "activity or initiative")
	cmd.Flags().StringVar(&f.owner, "owner", "", "responsible party")
	cmd.Flags().StringVar(&f.timeframe, "timeframe", "", "a date or free text such as a term")
	cmd.Flags().StringVar(&f.kpi, "kpi", "", "performance indicator")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority (high, medium, low)")
	cmd.Flags().StringVar(&f.status, "status", "", "status (in_progress, completed, deferred)")
	cmd.Flags().StringVar(&f.taskType, "type", "", "task type (moral, material)")
}

func (f *planFlags) apply(cmd *cobra.Command, item *stores.ActionPlanItem) {
	flags := cmd.Flags()
	if flags.Changed("objective") {
		item.Objective = f.objective
	}
	if flags.Changed("activity") {
		item.Activity = f.activity
	}
	if flags.Changed("owner") {
		item.ResponsibleParty = f.owner
	}
	if flags.Changed("timeframe") {
		item.Timeframe = f.timeframe
	}
	if flags.Changed("kpi") {
		item.KPI = f.kpi
	}
	if flags.Changed("priority") {
		item.Priority = stores.Priority(f.priority).Canonical()
	}
	if flags.Changed("status") {
		item.Status = stores.TaskStatus(f.status).Canonical()
	}
	if flags.Changed("type") {
		item.TaskType = stores.TaskType(f.taskType).Canonical()
	}
}

func newPlanAddCommand() *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an objective to the action plan",
		Example: `  desk plan add --objective "رفع مشاركة أولياء الأمور" --activity "لقاء مفتوح" --priority high`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			item := &stores.ActionPlanItem{}
			flags.apply(cmd, item)
			item.ApplyDefaults()
			if err := config.ValidateStruct(item); err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.CreateActionPlanItem(ctx, item); err != nil {
					return err
				}
				log.Info().Int64("id", item.ID).Msg("Action plan item saved")
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Added plan item %d (%s, %s)\n",
					item.ID, item.Status.Label(), item.TaskType.Label())
				return nil
			})
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("objective")

	return cmd
}

func newPlanListCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the action plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter := stores.TaskStatus(status).Canonical()

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				items, err := store.ListActionPlanItems(ctx)
				if err != nil {
					return err
				}

				if filter != "" {
					kept := items[:0]
					for _, item := range items {
						if item.Status.Canonical() == filter {
							kept = append(kept, item)
						}
					}
					items = kept
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, items)
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tOBJECTIVE\tACTIVITY\tOWNER\tTIMEFRAME\tKPI\tPRIORITY\tSTATUS\tTYPE")
				for _, item := range items {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						item.ID, item.Objective, item.Activity, item.ResponsibleParty, item.Timeframe, item.KPI,
						item.Priority.Label(), item.Status.Label(), item.TaskType.Label())
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only items with this status")

	return cmd
}

func newPlanStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status <id> <status>",
		Short:   "Change the status of a plan item",
		Example: `  desk plan status 3 completed`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := stores.TaskStatus(args[1]).Canonical()
			if !status.IsValid() {
				return apperrors.NewUserInputError(fmt.Sprintf("invalid status %q", args[1]), nil)
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.UpdateActionPlanStatus(ctx, id, status); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Plan item %d is now %s\n", id, status.Label())
				return nil
			})
		},
	}
}

func newPlanUpdateCommand() *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a plan item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				item, err := store.GetActionPlanItem(ctx, id)
				if err != nil {
					return err
				}
				item.Priority = item.Priority.Canonical()
				item.Status = item.Status.Canonical()
				item.TaskType = item.TaskType.Canonical()
				flags.apply(cmd, item)
				item.ApplyDefaults()
				if err := config.ValidateStruct(item); err != nil {
					return err
				}
				if err := store.UpdateActionPlanItem(ctx, item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated plan item %d\n", item.ID)
				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newPlanDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a plan item (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := session.RequireAdmin(ctx, "delete_plan_item"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withStore(ctx, func(store *stores.SQLiteStore) error {
				if err := store.DeleteActionPlanItem(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted plan item %d\n", id)
				return nil
			})
		},
	}
}
