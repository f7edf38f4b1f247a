package markers

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// CollectPipeLinks reads the declared partner of every pipe system object:
// the pipe's owning actor key maps to OtherPipe in the same area, or to the
// soft reference otherPipeInOtherLevel. Links may be single-sided.
func CollectPipeLinks(areas []*Area, pipePrefix string) map[string]string {
	links := make(map[string]string)
	for _, a := range areas {
		for _, o := range a.Objects {
			if !strings.HasPrefix(o.Type, pipePrefix) {
				continue
			}
			pipe, ok := o.Properties.Ref("Pipe")
			if !ok || pipe.Outer == "" {
				continue
			}
			from := MakeKey(a.Name, pipe.Outer)
			if area, name, ok := o.Properties.SoftRef("otherPipeInOtherLevel"); ok {
				links[from] = MakeKey(area, name)
				continue
			}
			if other, ok := o.Properties.Ref("OtherPipe"); ok {
				links[from] = MakeKey(a.Name, other.ObjectName)
			}
		}
	}
	return links
}

// LinkPipes attaches each pipe to its nearest cap within the configured
// radius and points it at its partner: the partner's cap when known,
// otherwise the partner itself. Self-referencing pipes are inbound only and
// get no target. Mutual partners are marked two-way. It returns the number
// of pipes given a target.
func LinkPipes(set *MarkerSet, cfg PipeConfig, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}

	caps := set.Filter(func(m *Marker) bool { return slices.Contains(cfg.CapTypes, m.Type) })
	points := make([]Vec, len(caps))
	for i, c := range caps {
		points[i] = c.Position()
	}
	index := NewPointIndex(points, 3)
	log.Info("collected pipe caps", zap.Int("caps", len(caps)))

	pipes := set.Filter(func(m *Marker) bool { return slices.Contains(cfg.PipeTypes, m.Type) })
	for _, p := range pipes {
		n, ok := index.Nearest(p.Position())
		if ok && n.Distance <= cfg.CapRadius {
			p.NearestCap = caps[n.Index].Key()
		}
	}

	linked := 0
	for _, p := range pipes {
		if p.OtherPipe == "" || p.OtherPipe == p.Key() {
			continue
		}
		partner := set.Get(p.OtherPipe)
		if partner == nil {
			continue
		}
		if c := set.Get(partner.NearestCap); partner.NearestCap != "" && c != nil {
			p.Target = NewXYZ(c.Position())
		} else {
			p.Target = NewXYZ(partner.Position())
		}
		linked++

		if partner.OtherPipe == p.Key() && p.Twoway == 0 && partner.Twoway == 0 {
			p.Twoway = TwowayPrimary
			partner.Twoway = TwowaySecondary
		}
	}

	log.Info("pipes linked", zap.Int("pipes", len(pipes)), zap.Int("linked", linked))
	return linked
}
