package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/habit"
	"github.com/dukerupert/accountable/internal/model"
)

func newHabitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Create, inspect and score habits",
	}
	cmd.AddCommand(
		newHabitCreateCmd(a),
		newHabitListCmd(a),
		newHabitShowCmd(a),
		newHabitDeleteCmd(a),
		newHabitViolationCmd(a),
		newHabitCleanCmd(a),
		newHabitCompleteCmd(a),
	)
	return cmd
}

func newHabitCreateCmd(a *app) *cobra.Command {
	var in model.NewHabit
	var kind string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a build or avoid habit",
		Example: `  accountable habit create "Push-ups" --owner me --kind build --value 20 --unit reps
  accountable habit create "Sugar" --owner me --kind avoid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			in.Name = args[0]
			in.Kind = model.Kind(kind)
			h, err := a.habits.Create(owner, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), h)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(model.KindBuild), "build or avoid")
	cmd.Flags().IntVar(&in.BaseTaskValue, "value", 0, "base task value (build habits)")
	cmd.Flags().StringVar(&in.Unit, "unit", "", "task unit, e.g. reps or pages (build habits)")
	return cmd
}

func newHabitListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List habits with today's status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			habits, err := a.habits.List(owner)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), habits)
		},
	}
}

func newHabitShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a habit, today's status and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			h, err := a.habits.Get(owner, args[0])
			if err != nil {
				return err
			}
			hist, err := a.habits.History(owner, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				*habit.WithStatus
				History *habit.History `json:"history"`
			}{h, hist})
		},
	}
}

func newHabitDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a habit and all of its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			if err := a.habits.Delete(owner, args[0]); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		},
	}
}

func newHabitViolationCmd(a *app) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "violation <id>",
		Short: "Log a violation of an avoid habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			ev, entry, err := a.habits.LogViolation(owner, args[0], notes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Event *model.Event `json:"event"`
				Debt  int          `json:"debt"`
			}{ev, entry.Debt})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "optional note stored with the event")
	return cmd
}

func newHabitCleanCmd(a *app) *cobra.Command {
	var dayFlag string
	cmd := &cobra.Command{
		Use:   "clean <id>",
		Short: "Confirm a day without violations for an avoid habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			day, err := a.parseDay(dayFlag)
			if err != nil {
				return err
			}
			res, err := a.habits.ConfirmCleanDay(owner, args[0], day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&dayFlag, "day", "", "day to confirm as YYYY-MM-DD (default today)")
	return cmd
}

func newHabitCompleteCmd(a *app) *cobra.Command {
	var dayFlag string
	var missed bool
	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Record whether a build habit's task was done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := a.requireOwner()
			if err != nil {
				return err
			}
			day, err := a.parseDay(dayFlag)
			if err != nil {
				return err
			}
			st, err := a.habits.CompleteDailyTask(owner, args[0], day, !missed)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().StringVar(&dayFlag, "day", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&missed, "missed", false, "record the task as not done")
	return cmd
}

// parseDay returns today in the configured zone for an empty value.
func (a *app) parseDay(s string) (calendar.Day, error) {
	if s == "" {
		return a.habits.Today(), nil
	}
	d, err := calendar.Parse(s)
	if err != nil {
		return calendar.Day{}, fmt.Errorf("--day: %w", err)
	}
	return d, nil
}
