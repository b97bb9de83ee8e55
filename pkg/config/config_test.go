package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
stream:
  source: replay
  replay:
    path: testdata/session.csv
`

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Session.SamplingRateHz != 100 {
		t.Fatalf("sampling rate %v want 100", c.Session.SamplingRateHz)
	}
	if c.Session.AxisReferenceSamples != 1000 {
		t.Fatalf("axis reference %d want 1000", c.Session.AxisReferenceSamples)
	}
	if c.Pipeline.WindowDurationMS != 10_000 || c.Pipeline.WindowStepMS != 1_000 {
		t.Fatalf("window %d/%d want 10000/1000", c.Pipeline.WindowDurationMS, c.Pipeline.WindowStepMS)
	}
	if c.Pipeline.EMAAlpha != 0.3 {
		t.Fatalf("ema alpha %v want 0.3", c.Pipeline.EMAAlpha)
	}
	if c.Logging.Level != "info" {
		t.Fatalf("logging level %q", c.Logging.Level)
	}
}

func TestLoadRejectsBadSource(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\nstream:\n  source: carrier-pigeon\n"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsMissingReplayPath(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\nstream:\n  source: replay\n"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsBadAlpha(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+"pipeline:\n  ema_alpha: 1.5\n"))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Backend.Type != "kafka" {
		t.Fatalf("backend %q want kafka", c.Backend.Type)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("brokers %v", c.Kafka.Brokers)
	}
}
