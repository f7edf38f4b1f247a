package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/SupraGamesCommunity/maps/markers"
	"github.com/SupraGamesCommunity/maps/store"
)

// AppOptions holds the command line options.
type AppOptions struct {
	ConfigFile  string
	Game        string
	CacheDir    string
	LegacyDir   string
	ClassesFile string
	LogLevel    string
	LogFile     string

	OutputFile     string
	GeoJSONFile    string
	CrossCheckFile string
	DBFile         string

	Top int
}

// App encapsulates the application state and dependencies
type App struct {
	Config *markers.Config
	Log    *zap.Logger

	// Out receives the human readable report, LogOut the console log.
	Out    io.Writer
	LogOut io.Writer

	opts AppOptions
}

// NewApp creates a new App instance
func NewApp(out, logOut io.Writer) *App {
	return &App{Out: out, LogOut: logOut}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.opts = opts
}

// setup loads the configuration, applies flag overrides and builds the
// logger. Flags win over the file, the file over the defaults.
func (a *App) setup() error {
	cfg, err := markers.LoadConfig(a.opts.ConfigFile)
	if err != nil {
		return err
	}
	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	if a.opts.LogFile != "" {
		cfg.Log.File = a.opts.LogFile
	}

	game, err := cfg.Game(a.opts.Game)
	if err != nil {
		return err
	}
	if a.opts.CacheDir != "" {
		game.CacheDir = a.opts.CacheDir
	}
	if a.opts.LegacyDir != "" {
		game.LegacyDir = a.opts.LegacyDir
	}
	cfg.Games[a.opts.Game] = game

	if err := cfg.Validate(); err != nil {
		return err
	}

	var fileCfg FileLogConfig
	if cfg.Log.File != "" {
		fileCfg = DefaultFileLogConfig(cfg.Log.File)
	}
	log, err := NewLogger(cfg.Log.Level, a.LogOut, fileCfg)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.Log = log
	return nil
}

// RunMarkers runs the marker pipeline for one game and writes its outputs.
func (a *App) RunMarkers(ctx context.Context) error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Log.Sync() //nolint:errcheck

	classes, err := markers.LoadClassTable(a.opts.ClassesFile)
	if err != nil {
		return err
	}
	pipeline, err := markers.NewPipeline(a.Config, a.opts.Game, classes, a.Log)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	all := res.Markers.All()

	output := a.opts.OutputFile
	if output == "" {
		output = fmt.Sprintf("markers.%s.json", a.opts.Game)
	}
	fields := a.Config.Export.Fields
	if err := writeFile(output, func(w io.Writer) error { return markers.WriteMarkers(w, all, fields) }); err != nil {
		return err
	}
	a.Log.Info("wrote markers", zap.String("path", output), zap.Int("markers", len(all)))

	if a.opts.GeoJSONFile != "" {
		if err := writeFile(a.opts.GeoJSONFile, func(w io.Writer) error { return markers.WriteGeoJSON(w, all) }); err != nil {
			return err
		}
		a.Log.Info("wrote geojson", zap.String("path", a.opts.GeoJSONFile))
	}

	suspicious := a.Config.Legacy.Suspicious
	if a.opts.CrossCheckFile != "" {
		rows := res.Report.Rows
		if err := writeFile(a.opts.CrossCheckFile, func(w io.Writer) error { return markers.WriteCrossCheck(w, rows, suspicious) }); err != nil {
			return err
		}
		a.Log.Info("wrote cross-check", zap.String("path", a.opts.CrossCheckFile), zap.Int("rows", len(rows)))
	}

	if a.opts.DBFile != "" {
		if err := a.saveToStore(ctx, all, res.Report.Rows, suspicious); err != nil {
			return err
		}
	}

	a.printResult(output, res)
	return nil
}

func (a *App) saveToStore(ctx context.Context, all []*markers.Marker, rows []markers.CrossCheckRow, suspicious float64) error {
	db, err := store.Open(a.opts.DBFile, a.Log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SaveMarkers(ctx, a.opts.Game, all); err != nil {
		return err
	}
	return db.SaveCrossCheck(ctx, a.opts.Game, rows, suspicious)
}

func (a *App) printResult(output string, res *markers.Result) {
	fmt.Fprintf(a.Out, "Game: %s\n", a.opts.Game)
	fmt.Fprintf(a.Out, "Markers: %d -> %s\n", res.Markers.Len(), output)
	fmt.Fprintf(a.Out, "Jump pads: %d targets, %d two-way pairs\n", res.PadTargets, res.PadPairs)
	fmt.Fprintf(a.Out, "Pipes: %d linked\n", res.PipeLinks)
	fmt.Fprintf(a.Out, "Coin stacks: %d\n", len(res.CoinStacks))
	for _, s := range res.Report.Stats {
		fmt.Fprintf(a.Out, "Legacy %s: %d/%d matched, max %.0f, median %.0f, %d suspicious\n",
			s.Group, s.Matched, s.Markers, s.Max, s.Median, s.Suspicious)
	}
}

// RunSummary parses the area dumps of one game and prints their contents.
func (a *App) RunSummary(ctx context.Context) error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Log.Sync() //nolint:errcheck

	game, err := a.Config.Game(a.opts.Game)
	if err != nil {
		return err
	}
	areas, err := markers.LoadAreas(game.CacheDir, game.Maps)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Found %d area(s)\n\n", len(areas))
	for _, area := range areas {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := markers.Summarize(area)
		fmt.Fprintf(a.Out, "=== %s ===\n", s.Area)
		fmt.Fprintf(a.Out, "Objects: %d\n", s.ObjectCount)
		fmt.Fprintf(a.Out, "Types: %d\n", len(s.TypeCounts))
		fmt.Fprintf(a.Out, "Placements: %d\n", s.Placements)
		top := s.TopTypes(a.opts.Top)
		if len(top) > 0 {
			parts := make([]string, len(top))
			for i, t := range top {
				parts[i] = fmt.Sprintf("%s (%d)", t, s.TypeCounts[t])
			}
			fmt.Fprintf(a.Out, "Top types: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintln(a.Out)
	}
	return nil
}

// RunConfig writes the effective configuration, with the file and flag
// overrides applied, to the output file or the report writer.
func (a *App) RunConfig(ctx context.Context) error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.Log.Sync() //nolint:errcheck

	if a.opts.OutputFile == "" {
		return markers.WriteConfig(a.Out, a.Config)
	}
	if err := markers.SaveConfig(a.opts.OutputFile, a.Config); err != nil {
		return err
	}
	a.Log.Info("wrote config", zap.String("path", a.opts.OutputFile))
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
