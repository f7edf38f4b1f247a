package markers

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Result holds the output of one pipeline run.
type Result struct {
	Markers    *MarkerSet
	Report     ReconcileReport
	PadTargets int
	PadPairs   int
	PipeLinks  int
	CoinStacks []*Marker
}

// Pipeline runs every pass over the areas of one game. Passes run strictly
// in sequence since each depends on fields set by the previous ones.
type Pipeline struct {
	cfg     *Config
	gameID  string
	game    GameConfig
	classes ClassTable
	log     *zap.Logger
}

// NewPipeline creates a pipeline for a configured game.
func NewPipeline(cfg *Config, gameID string, classes ClassTable, log *zap.Logger) (*Pipeline, error) {
	game, err := cfg.Game(gameID)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		gameID:  gameID,
		game:    game,
		classes: classes,
		log:     log.With(zap.String("game", gameID)),
	}, nil
}

// Run loads the game's area dumps and legacy dataset and processes them.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	areas, err := LoadAreas(p.game.CacheDir, p.game.Maps)
	if err != nil {
		return nil, err
	}
	for _, a := range areas {
		p.log.Info("loaded area", zap.String("area", a.Name), zap.Int("objects", len(a.Objects)))
	}

	var legacy map[string][]LegacyRecord
	if p.game.LegacyDir != "" {
		legacy, err = LoadLegacy(p.game.LegacyDir, p.cfg.Legacy.Groups, p.log)
		if err != nil {
			return nil, err
		}
	}
	return p.Process(ctx, areas, legacy)
}

// Process runs the passes over already loaded areas.
func (p *Pipeline) Process(ctx context.Context, areas []*Area, legacy map[string][]LegacyRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{}

	placements := DiscoverPlacements(areas, p.log)
	classifier := NewClassifier(p.cfg, p.game, areas, placements, p.log)
	res.Markers = classifier.Classify(areas)

	passes := []struct {
		name string
		run  func()
	}{
		{"pad targets", func() { res.PadTargets = CalculatePadTargets(res.Markers, p.cfg, p.log) }},
		{"pad pairing", func() {
			if res.PadTargets == 0 {
				p.log.Info("no pad targets, skipping pad pairing")
				return
			}
			res.PadPairs = PairPads(res.Markers, p.cfg.Trajectory.PadTypes, p.cfg.Pairing, p.log)
		}},
		{"pipe links", func() { res.PipeLinks = LinkPipes(res.Markers, p.cfg.Pipes, p.log) }},
		{"coin stacks", func() { res.CoinStacks = AggregateCoins(res.Markers, p.cfg.Cluster, p.log) }},
		{"legacy", func() {
			if len(legacy) == 0 {
				return
			}
			r := NewReconciler(p.classes, p.cfg.Legacy, p.gameID, p.game.MapURL, p.log)
			res.Report = r.Reconcile(res.Markers, legacy)
		}},
	}
	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("before %s: %w", pass.name, err)
		}
		pass.run()
	}

	p.log.Info("pipeline complete", zap.Int("markers", res.Markers.Len()))
	return res, nil
}
