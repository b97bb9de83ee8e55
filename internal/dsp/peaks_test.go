package dsp

import (
	"math"
	"reflect"
	"testing"
)

func TestFindPeaksSimple(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0, 3, 0}
	got := FindPeaks(x, PeakOptions{})
	want := []int{1, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFindPeaksPlateauMidpoint(t *testing.T) {
	x := []float64{0, 1, 1, 1, 0}
	got := FindPeaks(x, PeakOptions{})
	if !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("got %v want [2]", got)
	}
}

func TestFindPeaksEdgesExcluded(t *testing.T) {
	x := []float64{5, 0, 0, 0, 5}
	if got := FindPeaks(x, PeakOptions{}); len(got) != 0 {
		t.Fatalf("edge samples must not be peaks, got %v", got)
	}
}

func TestFindPeaksMinHeight(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0, 3, 0}
	got := FindPeaks(x, PeakOptions{MinHeight: 2})
	want := []int{3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFindPeaksMinDistanceKeepsTallest(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0, 3, 0}
	got := FindPeaks(x, PeakOptions{MinDistance: 3})
	// the tallest peak at 5 suppresses 3; 1 is far enough from 5
	want := []int{1, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFindPeaksMinProminence(t *testing.T) {
	// small bump riding on the shoulder of a large peak
	x := []float64{0, 10, 9, 9.5, 9, 0}
	got := FindPeaks(x, PeakOptions{MinProminence: 1})
	want := []int{1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFindPeaksSineCount(t *testing.T) {
	const (
		n    = 2000
		rate = 100.0
		freq = 1.3
	)
	x := make([]float64, n)
	for i := range x {
		x[i] = 50 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	got := FindPeaks(x, PeakOptions{MinDistance: 20, MinHeight: 35, MinProminence: 20})
	// 1.3 Hz over 20 s gives 26 maxima
	if len(got) != 26 {
		t.Fatalf("got %d peaks want 26", len(got))
	}
}
