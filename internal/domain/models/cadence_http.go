package models

// Requests for cadence HTTP endpoints. Defined in domain for consistency and reuse.

type CadenceRequest struct {
	Method string `query:"method" json:"method" default:"" validate:"omitempty,oneof=peak spectral autocorrelation"`
}

type SeriesRequest struct {
	Method string `query:"method" json:"method" default:"peak" validate:"oneof=peak spectral autocorrelation"`
	FromMS int64  `query:"from" json:"from" default:"0" validate:"gte=0"`
	ToMS   int64  `query:"to" json:"to" default:"0" validate:"gte=0"`
	Limit  int    `query:"limit" json:"limit" default:"3600" validate:"gte=1,lte=36000"`
}

type ExportRequest struct {
	// StartTime is the absolute session-start timestamp; the device only
	// reports relative milliseconds, so export needs this supplied.
	StartTime string `json:"start_time" validate:"required"`
	TrackName string `json:"track_name" default:"StrideSense run" validate:"max=128"`
	// Positions are optional GNSS fixes, relative-millisecond stamped like
	// the sample stream.
	Positions []TrackPosition `json:"positions"`
}
