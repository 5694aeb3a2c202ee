package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quest/internal/recurrence"
	"quest/internal/task"
)

func newScheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule NAME",
		Short: "Schedule a mission",
		Long: `Schedule a mission starting at --anchor. Without --unit it happens once.

Examples:
  quest schedule "stretch" --unit day
  quest schedule "run" --unit week --every 2 --days mon,wed --until 2025-06-30
  quest schedule "rent" --unit month --anchor 2025-01-31 --points 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("name cannot be empty")
			}
			flags := cmd.Flags()
			rawAnchor, _ := flags.GetString("anchor")
			unit, _ := flags.GetString("unit")
			every, _ := flags.GetInt("every")
			days, _ := flags.GetString("days")
			until, _ := flags.GetString("until")
			points, _ := flags.GetInt("points")
			reps, _ := flags.GetInt("reps")

			anchor, err := parseDateArg(rawAnchor)
			if err != nil {
				return fmt.Errorf("anchor: %w", err)
			}
			rule, err := recurrence.ParseRule(unit, every, days, until)
			if err != nil {
				return err
			}
			t := recurrence.Template{
				ID:          task.NewID(),
				Name:        name,
				Points:      points,
				Repetitions: reps,
				Anchor:      anchor,
				Rule:        rule,
			}
			if err := a.store.SaveTemplate(t); err != nil {
				return err
			}
			if rule != nil && rule.Unit() == recurrence.UnitWeek && rule.Weekdays().Empty() {
				a.logger.Printf("schedule: %s has no weekdays and will never be due", t.ID)
			}
			if _, err := a.runner().Run(cmd.Context(), today()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %s\n", t.ID, t.Name, t.Describe())
			return nil
		},
	}
	cmd.Flags().String("anchor", "", "first day (YYYY-MM-DD, default today)")
	cmd.Flags().String("unit", "", "repeat unit: day, week, month or year (default: once)")
	cmd.Flags().Int("every", 1, "repeat every N units")
	cmd.Flags().String("days", "", "weekdays for weekly rules, e.g. mon,wed or 1,3")
	cmd.Flags().String("until", "", "last possible day (YYYY-MM-DD)")
	cmd.Flags().Int("points", 1, "points awarded")
	cmd.Flags().Int("reps", 1, "repetitions needed to complete")
	return cmd
}

func newUnscheduleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule ID",
		Short: "Delete a scheduled mission; existing daily entries stay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteTemplate(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newSkipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "skip ID DATE",
		Short: "Skip one occurrence of a mission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[1])
			if err != nil {
				return err
			}
			if err := a.store.AddException(args[0], date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s on %s\n", args[0], recurrence.FormatDate(date))
			return nil
		},
	}
}

func newUnskipCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unskip ID DATE",
		Short: "Restore a skipped occurrence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[1])
			if err != nil {
				return err
			}
			if _, err := a.store.Template(args[0]); err != nil {
				return err
			}
			if err := a.store.RemoveException(args[0], date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s on %s\n", args[0], recurrence.FormatDate(date))
			return nil
		},
	}
}

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "templates",
		Aliases: []string{"ls"},
		Short:   "List scheduled missions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.store.Templates()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(templates) == 0 {
				fmt.Fprintln(out, "No missions scheduled.")
				return nil
			}
			for _, t := range templates {
				fmt.Fprintf(out, "%s  %-24s %s", t.ID, t.Name, t.Describe())
				if n := t.Exceptions.Len(); n > 0 {
					fmt.Fprintf(out, " (%d skipped)", n)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due ID DATE",
		Short: "Report whether a mission is due on a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDateArg(args[1])
			if err != nil {
				return err
			}
			t, err := a.store.Template(args[0])
			if err != nil {
				return err
			}
			answer := "no"
			if t.DueOn(date) {
				answer = "yes"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", t.Name, recurrence.FormatDate(date), answer)
			return nil
		},
	}
}
