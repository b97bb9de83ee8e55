package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Session struct {
		ID                   string  `yaml:"id"`
		SamplingRateHz       float64 `yaml:"sampling_rate_hz"`
		CalibrationSamples   int     `yaml:"calibration_samples"`
		AxisReferenceSamples int     `yaml:"axis_reference_samples"`
	} `yaml:"session"`
	Pipeline struct {
		WindowDurationMS int64   `yaml:"window_duration_ms"`
		WindowStepMS     int64   `yaml:"window_step_ms"`
		EMAAlpha         float64 `yaml:"ema_alpha"`
		Peak             struct {
			MinDistanceMS int64   `yaml:"min_distance_ms"`
			MinHeight     float64 `yaml:"min_height"`
			MinProminence float64 `yaml:"min_prominence"`
		} `yaml:"peak"`
		Spectral struct {
			BandLowHz  float64 `yaml:"band_low_hz"`
			BandHighHz float64 `yaml:"band_high_hz"`
		} `yaml:"spectral"`
		Autocorr struct {
			BandLowHz         float64 `yaml:"band_low_hz"`
			BandHighHz        float64 `yaml:"band_high_hz"`
			MinPeakDistanceMS int64   `yaml:"min_peak_distance_ms"`
		} `yaml:"autocorr"`
	} `yaml:"pipeline"`
	Stream struct {
		Source         string        `yaml:"source"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		WebSocket      struct {
			URL          string        `yaml:"url"`
			PingInterval time.Duration `yaml:"ping_interval"`
		} `yaml:"websocket"`
		MQTT struct {
			Broker   string `yaml:"broker"`
			ClientID string `yaml:"client_id"`
			Topic    string `yaml:"topic"`
		} `yaml:"mqtt"`
		Replay struct {
			Path     string `yaml:"path"`
			Realtime bool   `yaml:"realtime"`
		} `yaml:"replay"`
	} `yaml:"stream"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Cache struct {
		ReadoutTTL time.Duration `yaml:"readout_ttl"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("STREAM_SOURCE"); v != "" {
		c.Stream.Source = v
	}
	if v := os.Getenv("STREAM_WS_URL"); v != "" {
		c.Stream.WebSocket.URL = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Stream.MQTT.Broker = v
	}
	if v := os.Getenv("REPLAY_PATH"); v != "" {
		c.Stream.Replay.Path = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Session.SamplingRateHz == 0 {
		c.Session.SamplingRateHz = 100
	}
	if c.Session.CalibrationSamples == 0 {
		c.Session.CalibrationSamples = 100
	}
	if c.Session.AxisReferenceSamples == 0 {
		c.Session.AxisReferenceSamples = 10 * c.Session.CalibrationSamples
	}
	if c.Pipeline.WindowDurationMS == 0 {
		c.Pipeline.WindowDurationMS = 10_000
	}
	if c.Pipeline.WindowStepMS == 0 {
		c.Pipeline.WindowStepMS = 1_000
	}
	if c.Pipeline.EMAAlpha == 0 {
		c.Pipeline.EMAAlpha = 0.3
	}
	if c.Pipeline.Peak.MinDistanceMS == 0 {
		c.Pipeline.Peak.MinDistanceMS = 200
	}
	if c.Pipeline.Peak.MinHeight == 0 {
		c.Pipeline.Peak.MinHeight = 35
	}
	if c.Pipeline.Peak.MinProminence == 0 {
		c.Pipeline.Peak.MinProminence = 20
	}
	if c.Pipeline.Spectral.BandLowHz == 0 {
		c.Pipeline.Spectral.BandLowHz = 0.5
	}
	if c.Pipeline.Spectral.BandHighHz == 0 {
		c.Pipeline.Spectral.BandHighHz = 4.0
	}
	if c.Pipeline.Autocorr.BandLowHz == 0 {
		c.Pipeline.Autocorr.BandLowHz = 0.3
	}
	if c.Pipeline.Autocorr.BandHighHz == 0 {
		c.Pipeline.Autocorr.BandHighHz = 4.0
	}
	if c.Pipeline.Autocorr.MinPeakDistanceMS == 0 {
		c.Pipeline.Autocorr.MinPeakDistanceMS = 200
	}
	if c.Backend.BatchSize == 0 {
		c.Backend.BatchSize = 50
	}
	if c.Backend.BatchTimeout == 0 {
		c.Backend.BatchTimeout = 5 * time.Second
	}
	if c.Cache.ReadoutTTL == 0 {
		c.Cache.ReadoutTTL = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Stream.Source {
	case "websocket", "mqtt", "replay":
	default:
		return fmt.Errorf("stream.source must be 'websocket', 'mqtt' or 'replay', got '%s'", c.Stream.Source)
	}
	if c.Stream.Source == "websocket" && c.Stream.WebSocket.URL == "" {
		return fmt.Errorf("stream.websocket.url is required")
	}
	if c.Stream.Source == "mqtt" && c.Stream.MQTT.Broker == "" {
		return fmt.Errorf("stream.mqtt.broker is required")
	}
	if c.Stream.Source == "replay" && c.Stream.Replay.Path == "" {
		return fmt.Errorf("stream.replay.path is required")
	}
	switch c.Backend.Type {
	case "", "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.Session.SamplingRateHz <= 0 {
		return fmt.Errorf("session.sampling_rate_hz must be positive")
	}
	if c.Pipeline.EMAAlpha <= 0 || c.Pipeline.EMAAlpha > 1 {
		return fmt.Errorf("pipeline.ema_alpha must be in (0, 1]")
	}
	if c.Pipeline.WindowStepMS > c.Pipeline.WindowDurationMS {
		return fmt.Errorf("pipeline.window_step_ms cannot exceed window_duration_ms")
	}
	return nil
}
