// Package cli wires the quest commands to config, storage and the
// scheduling engine.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quest/internal/config"
	"quest/internal/daily"
	"quest/internal/recurrence"
	"quest/internal/storage"
	"quest/internal/ui"
)

// now is the clock every command reads "today" from.
var now = time.Now

type app struct {
	configPath string
	cfg        config.Config
	logger     *log.Logger
	logFile    io.Closer
	store      *storage.Store
}

func (a *app) open(cmd *cobra.Command) error {
	if a.store != nil {
		return nil
	}
	if a.configPath == "" {
		a.configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	var out io.Writer = cmd.ErrOrStderr()
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		a.logFile = f
		out = f
	}
	a.logger = log.New(out, "quest: ", log.LstdFlags)

	store, err := storage.Open(cfg.DBPath, storage.WithLogger(a.logger), storage.WithClock(now))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.store = store
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
		a.logFile = nil
	}
	return errors.Join(errs...)
}

func (a *app) runner() *daily.Runner {
	return daily.NewRunner(a.store, daily.Materializer{Logger: a.logger, Now: now})
}

func today() time.Time {
	return recurrence.Day(now())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "quest",
		Short: "Quest - recurring missions, one day at a time",
		Long: `Quest keeps a list of scheduled missions and materializes the ones due
each day into a checklist.

Run without a subcommand to open the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.Run(a.store, a.cfg, a.logger)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $QUEST_CONFIG or the user config dir)")

	root.AddCommand(newTodayCmd(a))
	root.AddCommand(newAgendaCmd(a))
	root.AddCommand(newScheduleCmd(a))
	root.AddCommand(newUnscheduleCmd(a))
	root.AddCommand(newSkipCmd(a))
	root.AddCommand(newUnskipCmd(a))
	root.AddCommand(newTemplatesCmd(a))
	root.AddCommand(newDueCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newICSCmd(a))
	return root
}

// Execute runs the root command
func Execute(version string) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func parseDateArg(v string) (time.Time, error) {
	switch v {
	case "", "today":
		return today(), nil
	case "tomorrow":
		return today().AddDate(0, 0, 1), nil
	}
	return recurrence.ParseDate(v)
}
