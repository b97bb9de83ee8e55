package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"StrideSense/internal/domain/models"
)

func TestClampCadence(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{77.4, 77},
		{77.5, 78},
		{254, 254},
		{254.4, 254},
		{300, 254},
	}
	for _, tc := range cases {
		if got := ClampCadence(tc.in); got != tc.want {
			t.Fatalf("ClampCadence(%v) = %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestWriteTrack(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	series := []models.CadencePoint{
		{TimeMS: 10_000, StepsPerMinute: 78.2},
		{TimeMS: 11_000, StepsPerMinute: 300},
	}

	var buf bytes.Buffer
	e := &Exporter{TrackName: "morning run"}
	if err := e.WriteTrack(&buf, start, series, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`version="1.1"`,
		`xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1"`,
		"<name>morning run</name>",
		"<time>2026-03-14T09:00:10Z</time>",
		"<gpxtpx:cad>78</gpxtpx:cad>",
		"<gpxtpx:cad>254</gpxtpx:cad>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTrackMergesPositions(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	series := []models.CadencePoint{
		{TimeMS: 5000, StepsPerMinute: 80},
		{TimeMS: 6000, StepsPerMinute: 80},
	}
	positions := []models.TrackPosition{
		{TimeMS: 4500, Lat: 59.3, Lon: 18.1, EleM: 12},
	}

	var buf bytes.Buffer
	if err := (&Exporter{}).WriteTrack(&buf, start, series, positions); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `lat="59.3"`) || !strings.Contains(out, `lon="18.1"`) {
		t.Fatalf("position not merged:\n%s", out)
	}
	if !strings.Contains(out, "<ele>12</ele>") {
		t.Fatalf("elevation missing:\n%s", out)
	}
}

func TestWriteTrackEmptySeries(t *testing.T) {
	var buf bytes.Buffer
	if err := (&Exporter{}).WriteTrack(&buf, time.Now(), nil, nil); err == nil {
		t.Fatalf("expected error for empty series")
	}
}
