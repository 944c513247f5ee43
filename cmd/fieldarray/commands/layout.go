package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLayoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the offset of every (x, y, z) index tuple",
		Long: `layout allocates the configured array and prints its strides followed by
the linear offset of each (x, y, z) tuple, with x fastest. Dimension 3 is
not indexed and only contributes to the element count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := openArray(a.cfg, a.ctx)
			if err != nil {
				return err
			}
			defer arr.Release()

			out := cmd.OutOrStdout()
			d := arr.Dims()
			fmt.Fprintf(out, "layout=%s transposed=%t dims=%s size=%d strides=%v\n",
				arr.LayoutName(), arr.IsTransposed(), d, arr.Len(), arr.Strides())

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "x\ty\tz\toffset")
			for z := 0; z < d[2]; z++ {
				for y := 0; y < d[1]; y++ {
					for x := 0; x < d[0]; x++ {
						fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n", x, y, z, arr.Offset3(x, y, z))
					}
				}
			}
			return tw.Flush()
		},
	}
}
