package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dukerupert/accountable/internal/config"
	"github.com/dukerupert/accountable/internal/database"
	"github.com/dukerupert/accountable/internal/habit"
	"github.com/dukerupert/accountable/internal/logging"
	"github.com/dukerupert/accountable/internal/store"
)

// app holds what every subcommand needs once the root pre-run has loaded
// configuration and opened the database.
type app struct {
	configFile string
	owner      string

	cfg    *config.Config
	db     *sql.DB
	habits *habit.Service
	logger *slog.Logger
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "accountable",
		Short: "Accountable scores daily habits",
		Long: `Accountable tracks habits you want to build and habits you want to avoid.
Missed build tasks stack a penalty onto the next requirement; avoid-habit
violations accrue debt that clean days pay back.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.open,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (YAML)")
	pf.StringVar(&a.owner, "owner", "", "identity the habits belong to")
	pf.String("db-path", "", "SQLite database path")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("timezone", "", "IANA time zone that defines calendar days")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newHabitCmd(a))
	root.AddCommand(newRolloverCmd(a))
	root.AddCommand(newWindowCmd(a))
	return root, a
}

// execute runs the command tree and closes the database afterwards, whether
// or not the command failed.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	a.habits = habit.NewService(store.NewHabitStore(db), habit.Config{
		Location:        cfg.Location,
		Window:          cfg.Window,
		EnforceWindow:   cfg.EnforceWindow,
		Stacking:        cfg.Stacking,
		RolloverWorkers: cfg.RolloverWorkers,
	}, a.logger)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// requireOwner returns the --owner flag or an error when it is missing.
func (a *app) requireOwner() (string, error) {
	if a.owner == "" {
		return "", errors.New("--owner is required")
	}
	return a.owner, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
