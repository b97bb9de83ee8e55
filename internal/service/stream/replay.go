package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"StrideSense/internal/domain/models"
	drepo "StrideSense/internal/domain/repository"
)

// csvHeader is the recording layout: relative milliseconds, accelerometer in
// g, gyroscope in deg/s.
var csvHeader = []string{"time", "aX", "aY", "aZ", "gX", "gY", "gZ"}

// Replay streams a recorded CSV session. With Realtime set it paces emission
// by the recorded timestamps; otherwise it emits as fast as the consumer
// drains, which is how offline analysis runs.
type Replay struct {
	path     string
	realtime bool

	file   *os.File
	opened bool
}

// NewReplay creates a CSV replay stream.
func NewReplay(path string, realtime bool) drepo.SampleStream {
	return &Replay{path: path, realtime: realtime}
}

// Connect opens the recording and checks the header.
func (r *Replay) Connect(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	r.file = f
	r.opened = true
	return nil
}

// Read streams the recorded samples in file order.
func (r *Replay) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, 1024)
	errs := make(chan error, 1)

	go func() {
		defer close(samples)
		defer close(errs)

		reader := csv.NewReader(r.file)
		reader.FieldsPerRecord = len(csvHeader)

		header, err := reader.Read()
		if err != nil {
			errs <- fmt.Errorf("read header: %w", err)
			return
		}
		if len(header) != len(csvHeader) || header[0] != csvHeader[0] {
			errs <- fmt.Errorf("unexpected header %v, want %v", header, csvHeader)
			return
		}

		var prevMS int64 = -1
		for {
			rec, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- fmt.Errorf("read record: %w", err)
				return
			}
			s, err := parseRecord(rec)
			if err != nil {
				errs <- err
				return
			}

			if r.realtime && prevMS >= 0 && s.TimeMS > prevMS {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Duration(s.TimeMS-prevMS) * time.Millisecond):
				}
			}
			prevMS = s.TimeMS

			select {
			case <-ctx.Done():
				return
			case samples <- s:
			}
		}
	}()

	return samples, errs
}

func parseRecord(rec []string) (*models.Sample, error) {
	t, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", rec[0], err)
	}
	var vals [6]float64
	for i := 0; i < 6; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", csvHeader[i+1], rec[i+1], err)
		}
		vals[i] = v
	}
	return &models.Sample{
		TimeMS:  t,
		AccelG:  models.Vec3{vals[0], vals[1], vals[2]},
		GyroDPS: models.Vec3{vals[3], vals[4], vals[5]},
	}, nil
}

// Reconnect rewinds to the start of the recording.
func (r *Replay) Reconnect(ctx context.Context) error {
	_ = r.Close()
	return r.Connect(ctx)
}

// Close closes the recording file.
func (r *Replay) Close() error {
	r.opened = false
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// IsConnected indicates whether the recording is open.
func (r *Replay) IsConnected() bool { return r.opened }
