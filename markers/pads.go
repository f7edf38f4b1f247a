package markers

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// Two-way markers record which side draws the shared link line.
const (
	TwowayPrimary   = 1
	TwowaySecondary = 2
)

type padFlight struct {
	m      *Marker
	pos    Vec
	travel float64 // horizontal distance from pad to target
	dir    Vec     // unit horizontal travel direction
}

// PairPads detects jump pads that launch at each other and joins them: both
// targets are replaced by the partner position and the pair is cross
// referenced through other_pad and twoway. A pad is paired at most once;
// the first mutual match in marker order wins. It returns the number of
// pairs made.
func PairPads(set *MarkerSet, padTypes []string, cfg PairingConfig, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}

	var pads []padFlight
	for _, m := range set.All() {
		if !slices.Contains(padTypes, m.Type) || m.Direction == nil || m.Target == nil {
			continue
		}
		if math.Abs(m.Direction.Z) > cfg.VerticalDot {
			continue
		}
		pos := m.Position()
		travel := horizontal(m.Target.Vec().Sub(pos))
		if travel.Norm() == 0 {
			continue
		}
		pads = append(pads, padFlight{m: m, pos: pos, travel: travel.Norm(), dir: travel.Normalize()})
	}

	candidates := make([][]int, len(pads))
	for i, a := range pads {
		for j, b := range pads {
			if i != j && padsFace(a, b, cfg) {
				candidates[i] = append(candidates[i], j)
			}
		}
	}

	paired := make([]bool, len(pads))
	pairs := 0
	for i := range pads {
		if paired[i] {
			continue
		}
		for _, j := range candidates[i] {
			if paired[j] || !slices.Contains(candidates[j], i) {
				continue
			}
			joinPads(pads[i], pads[j])
			paired[i], paired[j] = true, true
			pairs++
			log.Debug("paired pads",
				zap.String("primary", pads[i].m.Key()),
				zap.String("secondary", pads[j].m.Key()))
			break
		}
	}

	log.Info("pads paired", zap.Int("candidates", len(pads)), zap.Int("pairs", pairs))
	return pairs
}

// padsFace reports whether b lies where a lands and both launch toward each other.
func padsFace(a, b padFlight, cfg PairingConfig) bool {
	target := a.m.Target.Vec()
	miss := planar.Distance(orb.Point{target.X, target.Y}, orb.Point{b.pos.X, b.pos.Y})
	if miss >= cfg.TargetRatio*a.travel {
		return false
	}
	if a.dir.Dot(b.dir) > -cfg.OppositeDot {
		return false
	}
	ab := horizontal(b.pos.Sub(a.pos))
	if ab.Norm() == 0 {
		return false
	}
	ab = ab.Normalize()
	return ab.Dot(a.dir) >= cfg.AlignDot && ab.Dot(b.dir) <= -cfg.AlignDot
}

func joinPads(a, b padFlight) {
	a.m.Target = NewXYZ(b.pos)
	b.m.Target = NewXYZ(a.pos)
	a.m.OtherPad = b.m.Key()
	b.m.OtherPad = a.m.Key()
	a.m.Twoway = TwowayPrimary
	b.m.Twoway = TwowaySecondary
}
