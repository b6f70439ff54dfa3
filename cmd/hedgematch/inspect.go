package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/hedge-lob/internal/parquetio"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.parquet",
		Short: "Print a parquet file's row count and columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parquetio.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, %d columns\n", r.Path(), r.NumRows(), len(r.Columns()))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tCOLUMN\tKIND\tTIMESTAMP")
			for _, c := range r.Columns() {
				unit := ""
				if c.IsTimestamp() {
					unit = c.Unit.String()
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.Index, c.Name, c.Kind, unit)
			}
			return tw.Flush()
		},
	}
}
