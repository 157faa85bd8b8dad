package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newWindowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "window",
		Short: "Show the confirmation window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.habits.Now()
			w := a.habits.Window()
			st := w.Status(now)
			return printJSON(cmd.OutOrStdout(), struct {
				Window    string `json:"window"`
				Open      bool   `json:"open"`
				Enforced  bool   `json:"enforced"`
				UntilOpen string `json:"until_open"`
				Remaining string `json:"remaining"`
			}{
				Window:    w.String(),
				Open:      st.Open,
				Enforced:  a.cfg.EnforceWindow,
				UntilOpen: st.UntilOpen.Round(time.Second).String(),
				Remaining: st.Remaining.Round(time.Second).String(),
			})
		},
	}
}
