package main

import (
	"github.com/spf13/cobra"
)

func newRolloverCmd(a *app) *cobra.Command {
	var dayFlag string
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Close a finished day for every habit",
		Long: `Rollover marks build habits without a status for the day as missed and
breaks the streak of avoid habits whose day was never confirmed. Running it
again for the same day changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.habits.Today().Yesterday()
			if dayFlag != "" {
				d, err := a.parseDay(dayFlag)
				if err != nil {
					return err
				}
				day = d
			}
			res, err := a.habits.Rollover(cmd.Context(), day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&dayFlag, "day", "", "day to close as YYYY-MM-DD (default yesterday)")
	return cmd
}
