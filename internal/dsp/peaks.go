package dsp

import "sort"

// PeakOptions constrains local-maximum detection. Thresholds are calibrated
// to the source sensor scale and sampling rate; re-validate them when
// retargeting hardware.
type PeakOptions struct {
	MinDistance   int     // samples between accepted peaks
	MinHeight     float64 // absolute height floor
	MinProminence float64 // height above the surrounding baseline
}

// FindPeaks returns indices of local maxima of x that satisfy the options,
// in ascending index order. Plateaus report their midpoint.
func FindPeaks(x []float64, o PeakOptions) []int {
	var candidates []int
	i := 1
	for i < len(x)-1 {
		if x[i] <= x[i-1] {
			i++
			continue
		}
		// climb plateaus: i is higher than its left neighbor here
		j := i
		for j < len(x)-1 && x[j+1] == x[j] {
			j++
		}
		if j < len(x)-1 && x[j+1] < x[j] {
			candidates = append(candidates, (i+j)/2)
		}
		i = j + 1
	}

	kept := candidates[:0]
	for _, p := range candidates {
		if o.MinHeight != 0 && x[p] < o.MinHeight {
			continue
		}
		if o.MinProminence > 0 && prominence(x, p) < o.MinProminence {
			continue
		}
		kept = append(kept, p)
	}

	if o.MinDistance <= 1 || len(kept) == 0 {
		return append([]int(nil), kept...)
	}
	return enforceDistance(x, kept, o.MinDistance)
}

// prominence measures how far the peak rises above its bases: scan outward
// on each side until a higher sample or the edge, track the minimum seen,
// and take the higher of the two minima as the reference level.
func prominence(x []float64, peak int) float64 {
	h := x[peak]

	leftBase := h
	for i := peak - 1; i >= 0; i-- {
		if x[i] > h {
			break
		}
		if x[i] < leftBase {
			leftBase = x[i]
		}
	}

	rightBase := h
	for i := peak + 1; i < len(x); i++ {
		if x[i] > h {
			break
		}
		if x[i] < rightBase {
			rightBase = x[i]
		}
	}

	base := leftBase
	if rightBase > base {
		base = rightBase
	}
	return h - base
}

// enforceDistance greedily keeps the highest peaks first and drops any peak
// within minDist samples of an already kept one.
func enforceDistance(x []float64, peaks []int, minDist int) []int {
	byHeight := append([]int(nil), peaks...)
	sort.Slice(byHeight, func(a, b int) bool { return x[byHeight[a]] > x[byHeight[b]] })

	removed := make(map[int]bool, len(peaks))
	for _, p := range byHeight {
		if removed[p] {
			continue
		}
		for _, q := range peaks {
			if q == p || removed[q] {
				continue
			}
			d := q - p
			if d < 0 {
				d = -d
			}
			if d < minDist {
				removed[q] = true
			}
		}
	}

	out := make([]int, 0, len(peaks))
	for _, p := range peaks {
		if !removed[p] {
			out = append(out, p)
		}
	}
	return out
}
