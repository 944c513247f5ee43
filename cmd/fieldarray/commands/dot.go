package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

func newDotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dot",
		Short: "Reduce the staged ramp against itself on the device",
		Long: `dot stages 0, 1, 2, ... into the configured array, evaluates its inner
product with itself on the device, and checks it against a host reference.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(a.cfg, a.ctx)
			if err != nil {
				return err
			}
			defer arr.Release()

			host, err := arr.stageRamp()
			if err != nil {
				return err
			}
			got, err := arr.selfDot()
			if err != nil {
				return err
			}
			want := floats.Dot(host, host)

			fmt.Fprintf(cmd.OutOrStdout(), "device=%.15e host=%.15e\n", got, want)
			// float32 accumulation loses digits on long ramps.
			if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
				return fmt.Errorf("device reduction %g differs from host %g", got, want)
			}
			return nil
		},
	}
}
