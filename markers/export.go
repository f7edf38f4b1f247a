package markers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteMarkers writes the markers as a JSON array. When fields is non-empty
// only those fields are written, in that order.
func WriteMarkers(w io.Writer, markers []*Marker, fields []string) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for i, m := range markers {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		obj, err := markerJSON(m, fields)
		if err != nil {
			return fmt.Errorf("encoding marker %s: %w", m.Key(), err)
		}
		buf.Write(obj)
	}
	if len(markers) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing markers: %w", err)
	}
	return nil
}

func markerJSON(m *Marker, fields []string) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil || len(fields) == 0 {
		return data, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		v, ok := raw[f]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, _ := json.Marshal(f)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var crossCheckMarkerColumns = []string{"name", "type", "area", "lat", "lng", "alt", "yt_video", "yt_start", "image"}

// WriteCrossCheck writes the reconciliation report as CSV: distance, review
// URL, the matched marker and every legacy column (prefixed legacy_).
func WriteCrossCheck(w io.Writer, rows []CrossCheckRow, suspicious float64) error {
	legacyCols := legacyColumns(rows)

	cw := csv.NewWriter(w)
	header := []string{"group", "distance", "suspicious", "url"}
	header = append(header, crossCheckMarkerColumns...)
	for _, c := range legacyCols {
		header = append(header, "legacy_"+c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		m := r.Marker
		record := []string{
			r.Group,
			strconv.FormatFloat(r.Distance, 'f', 2, 64),
			strconv.FormatBool(r.Suspicious(suspicious)),
			r.URL,
			m.Name, m.Type, m.Area,
			formatCoord(m.Lat), formatCoord(m.Lng), formatCoord(m.Alt),
			m.YtVideo, m.YtStart, m.Image,
		}
		for _, c := range legacyCols {
			record = append(record, r.Legacy.Fields[c])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func legacyColumns(rows []CrossCheckRow) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r.Legacy.Fields {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FeatureCollection converts markers to GeoJSON in map coordinates (lng, lat):
// one point per marker and one line per drawn link. Of a two-way pair only
// the primary side's line is emitted.
func FeatureCollection(markers []*Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		pt := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		pt.ID = m.Key()
		pt.Properties["name"] = m.Name
		pt.Properties["type"] = m.Type
		pt.Properties["area"] = m.Area
		pt.Properties["alt"] = m.Alt
		if m.Coins != nil {
			pt.Properties["coins"] = *m.Coins
		}
		if m.Twoway != 0 {
			pt.Properties["twoway"] = m.Twoway
		}
		fc.Append(pt)

		if m.Target == nil || m.Twoway == TwowaySecondary {
			continue
		}
		if m.Target.X == 0 && m.Target.Y == 0 && m.Target.Z == 0 {
			continue
		}
		line := geojson.NewFeature(orb.LineString{{m.Lng, m.Lat}, {m.Target.X, m.Target.Y}})
		line.Properties["name"] = m.Name
		line.Properties["type"] = m.Type
		line.Properties["link"] = true
		fc.Append(line)
	}
	return fc
}

// WriteGeoJSON writes markers as a GeoJSON feature collection.
func WriteGeoJSON(w io.Writer, markers []*Marker) error {
	data, err := json.MarshalIndent(FeatureCollection(markers), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	return nil
}
