package cli

import (
	"fmt"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"quest/internal/calendar"
	"quest/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write scheduled missions to a YAML backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.store.Templates()
			if err != nil {
				return err
			}
			if err := export.Write(args[0], templates, now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d mission(s) to %s\n", len(templates), args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load missions from a YAML backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := export.Read(args[0])
			if err != nil {
				return err
			}
			if err := a.store.ImportTemplates(templates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d mission(s)\n", len(templates))
			return nil
		},
	}
}

func newICSCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ics FILE",
		Short: "Write scheduled missions as an iCalendar file (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.store.Templates()
			if err != nil {
				return err
			}
			feed := calendar.BuildICS(templates, now())
			if args[0] == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), feed)
				return err
			}
			return atomic.WriteFile(args[0], strings.NewReader(feed))
		},
	}
}
