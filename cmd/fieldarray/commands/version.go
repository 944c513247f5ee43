package commands

import (
	"fmt"

	"github.com/LynnColeArt/gudafem"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gudafem module version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			version, sum := gudafem.Version()
			if version == "" {
				version = "(devel)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "gudafem %s %s\n", version, sum)
			return nil
		},
	}
}
