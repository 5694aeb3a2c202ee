package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"quest/internal/agenda"
	"quest/internal/recurrence"
	"quest/internal/task"
)

func newTodayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Materialize and list the day's missions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("date")
			date, err := parseDateArg(raw)
			if err != nil {
				return err
			}
			created, err := a.runner().Run(cmd.Context(), date)
			if err != nil {
				return err
			}
			tasks, err := a.store.Instances(date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d new)\n", recurrence.FormatDate(date), len(created))
			if len(tasks) == 0 {
				fmt.Fprintln(out, "Nothing due.")
				return nil
			}
			printInstances(out, tasks)
			return nil
		},
	}
	cmd.Flags().String("date", "", "day to materialize (YYYY-MM-DD, default today)")
	return cmd
}

func printInstances(out io.Writer, tasks []task.Instance) {
	earned, total := 0, 0
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
			earned += t.Points
		}
		total += t.Points
		line := fmt.Sprintf("  %s %s", box, t.Name)
		if reps := max(t.Repetitions, 1); reps > 1 {
			line += fmt.Sprintf(" (%d/%d)", t.CurrentRepetitions, reps)
		}
		fmt.Fprintf(out, "%-40s %3d pts  %s\n", line, t.Points, t.ID)
	}
	fmt.Fprintf(out, "%d/%d points\n", earned, total)
}

func newAgendaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show upcoming occurrences grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = a.cfg.AgendaLimit
			}
			raw, _ := cmd.Flags().GetString("from")
			from, err := parseDateArg(raw)
			if err != nil {
				return err
			}
			templates, err := a.store.Templates()
			if err != nil {
				return err
			}

			p := agenda.Projector{Limit: limit, HorizonDays: a.cfg.HorizonDays, Logger: a.logger}
			groups := p.Build(templates, from)
			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				fmt.Fprintln(out, "Nothing scheduled.")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintln(out, g.Label)
				for _, it := range g.Items {
					mark := " "
					if it.Canonical {
						mark = "*"
					}
					fmt.Fprintf(out, "  %s %-30s %3d pts  %s\n", mark, it.Name, it.Points, it.TemplateID)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 0, "occurrences per template (default agenda_limit from config)")
	cmd.Flags().String("from", "", "first day to show (YYYY-MM-DD, default today)")
	return cmd
}
