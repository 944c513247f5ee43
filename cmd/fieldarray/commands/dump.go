package commands

import (
	"github.com/LynnColeArt/gudafem/internal/logging"
	"github.com/spf13/cobra"
)

func newDumpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Stage a ramp into the array and print it back from the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(a.cfg, a.ctx)
			if err != nil {
				return err
			}
			defer arr.Release()

			if _, err := arr.stageRamp(); err != nil {
				return err
			}
			logging.Debugf("dump: %d elements staged", arr.Len())
			return arr.Print(cmd.OutOrStdout())
		},
	}
}
