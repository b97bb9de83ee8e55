// Package export serializes cadence series into GPX 1.1 tracks with the
// Garmin TrackPointExtension cadence field.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"

	"StrideSense/internal/domain/models"
)

// MaxCadence is the format ceiling of the gpxtpx:cad element. Values above
// it are saturated, not rejected.
const MaxCadence = 254

type gpxTPX struct {
	Cadence int `xml:"gpxtpx:cad"`
}

type gpxExtensions struct {
	TPX gpxTPX `xml:"gpxtpx:TrackPointExtension"`
}

type gpxPoint struct {
	XMLName    xml.Name      `xml:"trkpt"`
	Lat        float64       `xml:"lat,attr"`
	Lon        float64       `xml:"lon,attr"`
	Elevation  *float64      `xml:"ele,omitempty"`
	Time       string        `xml:"time"`
	Extensions gpxExtensions `xml:"extensions"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxTrack struct {
	Name     string       `xml:"name,omitempty"`
	Type     string       `xml:"type,omitempty"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxMetadata struct {
	Time string `xml:"time,omitempty"`
}

type gpxRoot struct {
	XMLName     xml.Name    `xml:"gpx"`
	Xmlns       string      `xml:"xmlns,attr"`
	XmlnsGpxtpx string      `xml:"xmlns:gpxtpx,attr"`
	Creator     string      `xml:"creator,attr"`
	Version     string      `xml:"version,attr"`
	Metadata    gpxMetadata `xml:"metadata"`
	Tracks      []gpxTrack  `xml:"trk"`
}

// Exporter writes GPX tracks from a smoothed cadence series. The peak-based
// series is the default source because it does not suffer harmonic doubling.
type Exporter struct {
	TrackName string
}

// WriteTrack serializes the cadence series to w. startTime anchors the
// device's relative milliseconds to absolute time. positions, when present,
// are merged onto points by nearest preceding timestamp; without them points
// carry zero coordinates, which downstream tools treat as cadence-only data.
func (e *Exporter) WriteTrack(w io.Writer, startTime time.Time, series []models.CadencePoint, positions []models.TrackPosition) error {
	if len(series) == 0 {
		return fmt.Errorf("empty cadence series")
	}

	sorted := append([]models.TrackPosition(nil), positions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TimeMS < sorted[j].TimeMS })

	seg := gpxSegment{Points: make([]gpxPoint, 0, len(series))}
	for _, p := range series {
		pt := gpxPoint{
			Time:       startTime.Add(time.Duration(p.TimeMS) * time.Millisecond).UTC().Format(time.RFC3339),
			Extensions: gpxExtensions{TPX: gpxTPX{Cadence: ClampCadence(p.StepsPerMinute)}},
		}
		if pos, ok := positionAt(sorted, p.TimeMS); ok {
			pt.Lat = pos.Lat
			pt.Lon = pos.Lon
			ele := pos.EleM
			pt.Elevation = &ele
		}
		seg.Points = append(seg.Points, pt)
	}

	name := e.TrackName
	if name == "" {
		name = "StrideSense run"
	}
	root := gpxRoot{
		Xmlns:       "http://www.topografix.com/GPX/1/1",
		XmlnsGpxtpx: "http://www.garmin.com/xmlschemas/TrackPointExtension/v1",
		Creator:     "StrideSense",
		Version:     "1.1",
		Metadata:    gpxMetadata{Time: startTime.UTC().Format(time.RFC3339)},
		Tracks: []gpxTrack{{
			Name:     name,
			Type:     "running",
			Segments: []gpxSegment{seg},
		}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	return enc.Flush()
}

// ClampCadence saturates a steps-per-minute value to the format range.
func ClampCadence(spm float64) int {
	if spm < 0 {
		return 0
	}
	if spm > MaxCadence {
		return MaxCadence
	}
	return int(spm + 0.5)
}

// positionAt finds the last position at or before t.
func positionAt(sorted []models.TrackPosition, t int64) (models.TrackPosition, bool) {
	i := sort.Search(len(sorted), func(k int) bool { return sorted[k].TimeMS > t })
	if i == 0 {
		return models.TrackPosition{}, false
	}
	return sorted[i-1], true
}
