package markers

import (
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"
)

// AggregateCoins replaces dense groups of non-rotating coins with a single
// coin stack marker. Coins are connected when they lie within the cluster
// distance of each other and groups are the connected components, so a
// chain of coins forms one group even when its ends are far apart. Groups
// of at least MinMembers coins become a stack at their centroid holding the
// summed value and a name -> value record of the coins it replaced; the
// coins themselves are removed. Smaller groups are left alone. Clustering
// stays within an area since stack members are addressed by name. It returns
// the stacks added.
func AggregateCoins(set *MarkerSet, cfg ClusterConfig, log *zap.Logger) []*Marker {
	if log == nil {
		log = zap.NewNop()
	}

	byArea := make(map[string][]*Marker)
	var areas []string
	for _, m := range set.All() {
		if m.Rotating || !slices.Contains(cfg.Types, m.Type) {
			continue
		}
		if _, ok := byArea[m.Area]; !ok {
			areas = append(areas, m.Area)
		}
		byArea[m.Area] = append(byArea[m.Area], m)
	}

	var stacks []*Marker
	var removed []*Marker
	names := make(map[string]bool)
	for _, area := range areas {
		for _, group := range ClusterByDistance(byArea[area], cfg.Distance) {
			if len(group) < cfg.MinMembers {
				continue
			}
			stack := newCoinStack(set, names, group, cfg.StackType)
			stacks = append(stacks, stack)
			removed = append(removed, group...)
			log.Debug("coin stack",
				zap.String("stack", stack.Key()),
				zap.Int("members", len(group)),
				zap.Int("coins", *stack.Coins))
		}
	}

	set.Remove(removed)
	for _, s := range stacks {
		set.Add(s)
	}
	log.Info("coin stacks created", zap.Int("stacks", len(stacks)), zap.Int("coins", len(removed)))
	return stacks
}

// ClusterByDistance groups markers into connected components where two
// markers are connected if their distance is at most maxDist. Members keep
// their input order and groups are ordered by their first member.
func ClusterByDistance(ms []*Marker, maxDist float64) [][]*Marker {
	if len(ms) == 0 {
		return nil
	}

	points := make([]Vec, len(ms))
	for i, m := range ms {
		points[i] = m.Position()
	}
	index := NewPointIndex(points, 3)

	uf := newUnionFind(len(ms))
	for i, p := range points {
		for _, n := range index.Within(p, maxDist) {
			if n.Index != i {
				uf.union(i, n.Index)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range ms {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	ordered := make([][]int, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i][0] < ordered[j][0] })

	result := make([][]*Marker, len(ordered))
	for i, g := range ordered {
		for _, idx := range g {
			result[i] = append(result[i], ms[idx])
		}
	}
	return result
}

// newCoinStack builds the stack marker of group. Stack names are numbered
// and skip keys already used by the set or by earlier stacks of this run.
func newCoinStack(set *MarkerSet, taken map[string]bool, group []*Marker, stackType string) *Marker {
	area := group[0].Area

	name := ""
	for n := 1; ; n++ {
		name = fmt.Sprintf("CoinStack%d", n)
		key := MakeKey(area, name)
		if set.Get(key) == nil && !taken[key] {
			taken[key] = true
			break
		}
	}

	points := make([]Vec, len(group))
	total := 0
	old := make(map[string]int, len(group))
	for i, m := range group {
		points[i] = m.Position()
		v := m.CoinValue()
		total += v
		old[m.Name] = v
	}

	stack := &Marker{
		Name:     name,
		Type:     stackType,
		Area:     area,
		Coins:    &total,
		OldCoins: old,
	}
	stack.SetPosition(Centroid(points))
	return stack
}

// unionFind implements a disjoint-set data structure with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}
