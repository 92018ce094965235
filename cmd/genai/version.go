package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/genaikit/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// No config or client needed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			info := version.Get()
			return a.render(info, func() error {
				return a.printf("%s\n", info.String())
			})
		},
	}
}
