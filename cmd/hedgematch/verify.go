package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/hedge-lob/internal/layout"
)

func newVerifyCmd(g *globalFlags) *cobra.Command {
	var basePath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the expected data directories exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Data.BasePath = basePath
			}

			l := layout.Layout{
				BasePath:   cfg.Data.BasePath,
				Year:       cfg.Data.Year,
				FuturesDir: cfg.Data.FuturesDir,
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DIRECTORY\tSTATUS\tPARQUET FILES\tPATH")
			missing := 0
			for _, st := range l.Verify(cfg.Data.Indices) {
				status := "ok"
				if !st.Exists {
					status = "missing"
					missing++
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", st.Name, status, st.Parquets, st.Path)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if missing > 0 {
				return fmt.Errorf("%d expected director(ies) missing under %s", missing, cfg.Data.BasePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&basePath, "base-path", "", "data root directory (overrides config)")
	return cmd
}
