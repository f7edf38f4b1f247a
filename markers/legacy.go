package markers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// ParseLegacyCSV reads legacy records from a CSV with a header row. The x and
// y columns are required; rows without a numeric x are skipped.
func ParseLegacyCSV(r io.Reader, category string) ([]LegacyRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s header: %w", category, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []LegacyRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s line %d: %w", category, line, err)
		}

		fields := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				fields[h] = strings.TrimSpace(row[i])
			}
		}
		x, errX := strconv.ParseFloat(fields["x"], 64)
		y, errY := strconv.ParseFloat(fields["y"], 64)
		if errX != nil || errY != nil {
			continue
		}
		records = append(records, LegacyRecord{
			Category: category,
			X:        x,
			Y:        y,
			Type:     fields["type"],
			YtVideo:  firstOf(fields, "ytVideo", "yt_video"),
			YtStart:  firstOf(fields, "ytStart", "yt_start"),
			Image:    fields["image"],
			Fields:   fields,
		})
	}
	return records, nil
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// LoadLegacy reads the category file of every group from dir. Missing files
// are skipped with a warning.
func LoadLegacy(dir string, groups []LegacyGroup, log *zap.Logger) (map[string][]LegacyRecord, error) {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(map[string][]LegacyRecord, len(groups))
	for _, g := range groups {
		path := filepath.Join(dir, g.File)
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn("legacy category file missing", zap.String("group", g.Name), zap.String("path", path))
				continue
			}
			return nil, fmt.Errorf("opening legacy file: %w", err)
		}
		records, err := ParseLegacyCSV(f, g.Name)
		f.Close()
		if err != nil {
			return nil, err
		}
		out[g.Name] = records
		log.Info("loaded legacy records", zap.String("group", g.Name), zap.Int("records", len(records)))
	}
	return out, nil
}

// GroupStats summarizes the matches of one legacy group.
type GroupStats struct {
	Group      string
	Markers    int
	Matched    int
	Max        float64
	Median     float64
	Suspicious int
}

// CrossCheckRow is one line of the manual review report.
type CrossCheckRow struct {
	Group    string
	Distance float64
	URL      string
	Marker   *Marker
	Legacy   LegacyRecord
}

// Suspicious reports whether the match is beyond threshold.
func (r CrossCheckRow) Suspicious(threshold float64) bool {
	return r.Distance > threshold
}

// ReconcileReport is the outcome of a reconciliation run.
type ReconcileReport struct {
	Stats []GroupStats
	Rows  []CrossCheckRow
}

// Reconciler matches legacy records to extracted markers.
type Reconciler struct {
	classes ClassTable
	cfg     LegacyConfig
	game    string
	mapURL  string
	log     *zap.Logger
}

// NewReconciler creates a reconciler for one game.
func NewReconciler(classes ClassTable, cfg LegacyConfig, game, mapURL string, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{classes: classes, cfg: cfg, game: game, mapURL: mapURL, log: log}
}

// Reconcile matches every legacy record to its nearest marker on the group's
// class layers, in map coordinates. Video and image references are copied to
// the marker only when the marker has none; extracted data always wins.
func (r *Reconciler) Reconcile(set *MarkerSet, records map[string][]LegacyRecord) ReconcileReport {
	var report ReconcileReport
	for _, g := range r.cfg.Groups {
		recs, ok := records[g.Name]
		if !ok {
			continue
		}
		stats, rows := r.reconcileGroup(set, g, recs)
		report.Stats = append(report.Stats, stats)
		report.Rows = append(report.Rows, rows...)
	}
	return report
}

func (r *Reconciler) reconcileGroup(set *MarkerSet, g LegacyGroup, recs []LegacyRecord) (GroupStats, []CrossCheckRow) {
	candidates := set.Filter(func(m *Marker) bool { return r.classes.InLayer(m.Type, g.Layers) })
	stats := GroupStats{Group: g.Name, Markers: len(candidates)}

	points := make([]orb.Point, len(candidates))
	for i, m := range candidates {
		points[i] = orb.Point{m.Lng, m.Lat}
	}
	index := NewPlanarIndex(points)

	var rows []CrossCheckRow
	var distances []float64
	for _, rec := range recs {
		i, dist, ok := index.Nearest(orb.Point{rec.X, rec.Y})
		if !ok {
			continue
		}
		m := candidates[i]
		mergeLegacy(m, rec)

		distances = append(distances, dist)
		row := CrossCheckRow{Group: g.Name, Distance: dist, URL: r.reviewURL(m), Marker: m, Legacy: rec}
		if row.Suspicious(r.cfg.Suspicious) {
			stats.Suspicious++
			r.log.Debug("suspicious legacy match",
				zap.String("group", g.Name),
				zap.String("marker", m.Key()),
				zap.Float64("distance", dist))
		}
		rows = append(rows, row)
	}

	stats.Matched = len(distances)
	if len(distances) > 0 {
		sort.Float64s(distances)
		stats.Max = distances[len(distances)-1]
		stats.Median = medianOfSorted(distances)
	}

	r.log.Info("reconciled legacy group",
		zap.String("group", g.Name),
		zap.Int("markers", stats.Markers),
		zap.Int("matched", stats.Matched),
		zap.Float64("max", stats.Max),
		zap.Float64("median", stats.Median),
		zap.Int("suspicious", stats.Suspicious))
	return stats, rows
}

// mergeLegacy copies supplementary fields that the marker does not define.
func mergeLegacy(m *Marker, rec LegacyRecord) {
	if m.YtVideo == "" {
		m.YtVideo = rec.YtVideo
	}
	if m.YtStart == "" {
		m.YtStart = rec.YtStart
	}
	if m.Image == "" {
		m.Image = rec.Image
	}
}

func (r *Reconciler) reviewURL(m *Marker) string {
	v := url.Values{}
	v.Set("mapId", r.game)
	v.Set("lat", strconv.FormatFloat(math.Round(m.Lat), 'f', -1, 64))
	v.Set("lng", strconv.FormatFloat(math.Round(m.Lng), 'f', -1, 64))
	v.Set("zoom", strconv.Itoa(r.cfg.Zoom))
	return r.mapURL + "#" + v.Encode()
}

func medianOfSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}
