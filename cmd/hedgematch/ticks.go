package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/hedge-lob/internal/ticks"
)

func newTicksCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ticks [RIC...]",
		Short: "Show tick sizes, for the given RICs or the whole table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			table := ticks.New(cfg.Ticks.Default, cfg.Ticks.Prefixes)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 0 {
				fmt.Fprintln(tw, "PREFIX\tTICK")
				for _, e := range table.Entries() {
					fmt.Fprintf(tw, "%s\t%g\n", e.Prefix, e.Size)
				}
				fmt.Fprintf(tw, "*\t%g\n", table.Default)
				return nil
			}

			fmt.Fprintln(tw, "RIC\tTICK\tSOURCE")
			for _, ric := range args {
				size, ok := table.Lookup(ric)
				source := "prefix"
				if !ok {
					source = "default"
				}
				fmt.Fprintf(tw, "%s\t%g\t%s\n", ric, size, source)
			}
			return nil
		},
	}
}
