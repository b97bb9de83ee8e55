package models

import "time"

// Method identifies a cadence estimation strategy.
type Method string

const (
	MethodPeak     Method = "peak"
	MethodSpectral Method = "spectral"
	MethodAutocorr Method = "autocorrelation"
)

// Methods lists all estimation strategies in aggregation order.
var Methods = []Method{MethodPeak, MethodSpectral, MethodAutocorr}

// Valid reports whether m names a known strategy.
func (m Method) Valid() bool {
	switch m {
	case MethodPeak, MethodSpectral, MethodAutocorr:
		return true
	}
	return false
}

// AnalysisWindow selects a contiguous sample range [StartMS, EndMS).
type AnalysisWindow struct {
	StartMS int64
	EndMS   int64
}

// DurationMS returns the window length in milliseconds.
func (w AnalysisWindow) DurationMS() int64 { return w.EndMS - w.StartMS }

// Seconds returns the window length in seconds.
func (w AnalysisWindow) Seconds() float64 { return float64(w.EndMS-w.StartMS) / 1000.0 }

// CadenceEstimate is one raw per-window result. Immutable once produced.
type CadenceEstimate struct {
	Window         AnalysisWindow `json:"window"`
	Method         Method         `json:"method"`
	StepsPerMinute float64        `json:"spm"`
}

// CadencePoint is one EMA-smoothed value of a per-method series, stamped with
// the end time of the window that produced it.
type CadencePoint struct {
	TimeMS         int64   `json:"t"`
	StepsPerMinute float64 `json:"spm"`
}

// Readout is the latest live cadence view for one method.
type Readout struct {
	Method         Method    `json:"method"`
	TimeMS         int64     `json:"t"`
	StepsPerMinute float64   `json:"spm"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TrackPosition is an externally supplied GNSS fix used only for export.
type TrackPosition struct {
	TimeMS int64   `json:"t"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	EleM   float64 `json:"ele"`
}
