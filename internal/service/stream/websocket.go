// Package stream provides SampleStream transports: a WebSocket device
// bridge, an MQTT device bridge, and CSV replay for offline recordings.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"StrideSense/internal/domain/models"
	drepo "StrideSense/internal/domain/repository"
	applogger "StrideSense/pkg/logger"
)

// WSClient reads IMU frames from a WebSocket device bridge. The bridge sits
// on the phone side of the Bluetooth link and re-publishes raw frames as
// JSON.
type WSClient struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *applogger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewWSClient creates a WebSocket sample stream.
func NewWSClient(url string, reconnectDelay, pingInterval time.Duration, logger *applogger.Logger) drepo.SampleStream {
	return &WSClient{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         logger,
	}
}

// Connect establishes the WebSocket connection.
func (c *WSClient) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("device bridge connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info("device bridge connected", applogger.String("url", c.url))
	return nil
}

// wsFrame is the bridge wire format: relative milliseconds plus the two
// tri-axis readings.
type wsFrame struct {
	T int64      `json:"t"`
	A [3]float64 `json:"a"`
	G [3]float64 `json:"g"`
}

// Read streams samples and errors until the context ends or the socket
// fails.
func (c *WSClient) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	samples := make(chan *models.Sample, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(samples)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("device bridge conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("device bridge read: %w", err)
					return
				}
				var f wsFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore non-sample frames
					continue
				}
				s := &models.Sample{TimeMS: f.T, AccelG: f.A, GyroDPS: f.G}
				select {
				case samples <- s:
				default:
					// drop on backpressure; the estimators tolerate gaps
				}
			}
		}
	}()

	return samples, errs
}

// Reconnect closes and reconnects.
func (c *WSClient) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	return c.Connect(ctx)
}

// Close closes the connection.
func (c *WSClient) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *WSClient) IsConnected() bool { return c.connected }
