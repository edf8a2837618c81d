package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, role definitions and the LLM endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := setup(cmd.Context(), cmd, out)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()
			color.New(color.FgGreen, color.Bold).Fprintf(out, "Preflight passed: provider %s, model %s, output %s\n",
				a.cfg.LLM.Provider, a.cfg.LLM.Model, a.cfg.OutputDir)
			return nil
		},
	}
}
