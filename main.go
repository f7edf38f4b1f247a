package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Runner is what the commands drive; App implements it.
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunMarkers(ctx context.Context) error
	RunSummary(ctx context.Context) error
	RunConfig(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(os.Stdout, os.Stderr)
	if err := run(ctx, os.Args[1:], os.Stdout, app); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, app Runner) error {
	root := newRootCmd(out, app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(out io.Writer, app Runner) *cobra.Command {
	var opts AppOptions

	root := &cobra.Command{
		Use:   "supramaps",
		Short: "Generate interactive map markers from decoded game area dumps",
		Long: `supramaps turns decoded per-area scene object dumps into marker records:
world positions, jump pad landing targets and pairs, linked pipes, coin
stacks, and data merged from the legacy hand-made dataset.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "Path to configuration file (default: built-in)")
	pf.StringVarP(&opts.Game, "game", "g", "siu", "Game id (sl, slc, siu)")
	pf.StringVar(&opts.CacheDir, "cache-dir", "", "Directory holding <area>.json dumps (overrides config)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.LogFile, "log-file", "", "Also log to this rotating file")

	markersCmd := &cobra.Command{
		Use:   "markers",
		Short: "Run the marker pipeline and write the marker file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.ApplyOptions(opts)
			return app.RunMarkers(cmd.Context())
		},
	}
	f := markersCmd.Flags()
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Marker JSON output (default markers.<game>.json)")
	f.StringVar(&opts.ClassesFile, "classes", "gameClasses.json", "Class metadata table")
	f.StringVar(&opts.LegacyDir, "legacy-dir", "", "Directory holding the legacy CSV files (overrides config)")
	f.StringVar(&opts.GeoJSONFile, "geojson", "", "Also write markers as GeoJSON")
	f.StringVar(&opts.CrossCheckFile, "crosscheck", "", "Write the legacy cross-check CSV report")
	f.StringVar(&opts.DBFile, "db", "", "Also store markers and the cross-check report in this SQLite file")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-area object counts of the dumps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.ApplyOptions(opts)
			return app.RunSummary(cmd.Context())
		},
	}
	summaryCmd.Flags().IntVar(&opts.Top, "top", 10, "Number of most common types to list")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.ApplyOptions(opts)
			return app.RunConfig(cmd.Context())
		},
	}
	configCmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Write to this file instead of stdout")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "supramaps version: %s\n", Version)
		},
	}

	root.AddCommand(markersCmd, summaryCmd, configCmd, versionCmd)
	return root
}
