// Command hedgematch matches hedge-order executions to limit order book
// snapshots and writes the matched rows per RIC.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/hedge-lob/internal/config"
	"github.com/rickgao/hedge-lob/internal/logging"
	"github.com/rickgao/hedge-lob/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
	logFormat  string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "hedgematch",
		Short: "Match hedge executions to LOB snapshots",
		Long: `hedgematch pairs hedge-order fills with the limit order book state they
traded against. For each fill it searches LOB snapshots from one second
before to a threshold after the execution, first for a level quoting the
exact execution price with enough size, then for one within a tick.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to YAML config file")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text or json (overrides config)")

	root.AddCommand(
		newRunCmd(g),
		newTicksCmd(g),
		newInspectCmd(),
		newVerifyCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the config file, environment and defaults. Validation is
// left to the caller so flags can be applied first.
func (g *globalFlags) loadConfig() (*config.PipelineConfig, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// logger builds the process logger and installs it as the slog default.
func (g *globalFlags) logger(cfg *config.PipelineConfig, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(w, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hedgematch %s\n", version.String())
		},
	}
}
