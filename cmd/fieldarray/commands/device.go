package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeviceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Show the device runtime and its memory pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stats := a.ctx.Stats()
			fmt.Fprintln(out, a.ctx.Device())
			fmt.Fprintf(out, "in_use=%d peak=%d live=%d free=%d\n",
				stats.InUse, stats.Peak, stats.LiveBlocks, stats.FreeBlocks)
			return nil
		},
	}
}
