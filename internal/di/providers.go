package di

import (
	"context"
	"fmt"
	"time"

	"StrideSense/internal/domain/repository"
	domsvc "StrideSense/internal/domain/service"
	"StrideSense/internal/handler/api"
	mid "StrideSense/internal/middleware"
	internalrepo "StrideSense/internal/repository"
	"StrideSense/internal/service/stream"
	"StrideSense/internal/services/estimators"
	"StrideSense/internal/usecase"
	pkgcache "StrideSense/pkg/cache"
	pkgch "StrideSense/pkg/clickhouse"
	"StrideSense/pkg/config"
	xhttp "StrideSense/pkg/http"
	pkgkafka "StrideSense/pkg/kafka"
	applogger "StrideSense/pkg/logger"
	"StrideSense/pkg/metrics"
	"StrideSense/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSampleBuffer creates the session sample buffer.
func ProvideSampleBuffer(cfg *config.Config) repository.SampleStore {
	// capacity hint: one hour at the configured rate
	return internalrepo.NewSampleBuffer(int(cfg.Session.SamplingRateHz * 3600))
}

// ProvideSampleStream creates the configured sample transport.
func ProvideSampleStream(cfg *config.Config, logger *applogger.Logger) (repository.SampleStream, error) {
	switch cfg.Stream.Source {
	case "websocket":
		return stream.NewWSClient(
			cfg.Stream.WebSocket.URL,
			cfg.Stream.ReconnectDelay,
			cfg.Stream.WebSocket.PingInterval,
			logger,
		), nil
	case "mqtt":
		return stream.NewMQTTClient(
			cfg.Stream.MQTT.Broker,
			cfg.Stream.MQTT.ClientID,
			cfg.Stream.MQTT.Topic,
			logger,
		), nil
	case "replay":
		return stream.NewReplay(cfg.Stream.Replay.Path, cfg.Stream.Replay.Realtime), nil
	default:
		return nil, fmt.Errorf("unknown stream source %q", cfg.Stream.Source)
	}
}

// ProvideEstimators builds the three estimation strategies from config.
func ProvideEstimators(cfg *config.Config) []domsvc.Estimator {
	peak := estimators.DefaultPeakConfig()
	peak.MinPeakDistanceMS = float64(cfg.Pipeline.Peak.MinDistanceMS)
	peak.MinHeight = cfg.Pipeline.Peak.MinHeight
	peak.MinProminence = cfg.Pipeline.Peak.MinProminence

	spectral := estimators.DefaultSpectralConfig()
	spectral.Filter.CutoffLowHz = cfg.Pipeline.Spectral.BandLowHz
	spectral.Filter.CutoffHighHz = cfg.Pipeline.Spectral.BandHighHz

	autocorr := estimators.DefaultAutocorrConfig()
	autocorr.Filter.CutoffLowHz = cfg.Pipeline.Autocorr.BandLowHz
	autocorr.Filter.CutoffHighHz = cfg.Pipeline.Autocorr.BandHighHz
	autocorr.MinPeakDistanceMS = float64(cfg.Pipeline.Autocorr.MinPeakDistanceMS)

	return []domsvc.Estimator{
		estimators.NewPeak(peak),
		estimators.NewSpectral(spectral),
		estimators.NewAutocorr(autocorr),
	}
}

// ProvideSession builds the aggregator and session pair. The session is the
// aggregator's projection source, so the projector is wired after both exist.
func ProvideSession(
	cfg *config.Config,
	store repository.SampleStore,
	ests []domsvc.Estimator,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.Session {
	agg := usecase.NewAggregator(usecase.AggregatorConfig{
		SamplingRateHz:   cfg.Session.SamplingRateHz,
		WindowDurationMS: cfg.Pipeline.WindowDurationMS,
		WindowStepMS:     cfg.Pipeline.WindowStepMS,
		EMAAlpha:         cfg.Pipeline.EMAAlpha,
	}, nil, ests, m, logger)

	sess := usecase.NewSession(usecase.SessionConfig{
		ID:                   cfg.Session.ID,
		SamplingRateHz:       cfg.Session.SamplingRateHz,
		CalibrationSamples:   cfg.Session.CalibrationSamples,
		AxisReferenceSamples: cfg.Session.AxisReferenceSamples,
	}, store, agg, m, logger)
	agg.SetProjector(sess)
	return sess
}

// ProvideSampleCollector creates the stream collector feeding the ingest
// pipeline.
func ProvideSampleCollector(
	s repository.SampleStream,
	store repository.SampleStore,
	m repository.Metrics,
	cfg *config.Config,
	logger *applogger.Logger,
) *usecase.SampleCollector {
	pipe := mid.NewIngestPipeline(store, m, cfg.Stream.Source)
	return usecase.NewSampleCollector(s, pipe, logger)
}

// ProvideReadoutCache creates the cache behind the live readout endpoints.
func ProvideReadoutCache(cfg *config.Config, logger *applogger.Logger) pkgcache.Service {
	if cfg.Cache.Redis.Enabled {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddrString(cfg.Cache.Redis.Addr),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err == nil {
			return rc
		}
		logger.Warn("redis cache unavailable, falling back to memory", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache()
}

// ProvideReadout creates the readout usecase.
func ProvideReadout(sess *usecase.Session, c pkgcache.Service, cfg *config.Config, logger *applogger.Logger) *usecase.Readout {
	return usecase.NewReadout(sess, c, cfg.Cache.ReadoutTTL, logger)
}

// ProvideHandler creates the Echo HTTP handler.
func ProvideHandler(logger *applogger.Logger, readout *usecase.Readout) xhttp.Handler {
	return api.NewCadenceEchoHandler(logger, readout)
}

// ProvideApp creates the application server and attaches the configured
// telemetry backend behind a batcher sized by backend.batch_size and
// backend.batch_timeout.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	m repository.Metrics,
	collector *usecase.SampleCollector,
	sess *usecase.Session,
	handler xhttp.Handler,
) (*server.App, error) {
	app := server.New(cfg, logger, collector, sess, handler)

	attach := func(pub repository.Publisher, store repository.Storage) {
		sink := usecase.NewTelemetryBatcher(pub, store, cfg.Session.ID,
			cfg.Backend.BatchSize, cfg.Backend.BatchTimeout, m, logger)
		sess.Aggregator().SetSink(sink)
		app.AddCloser(sink.Close)
	}

	switch cfg.Backend.Type {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		attach(internalrepo.NewKafkaCadencePublisher(producer, cfg.Kafka.Topic), nil)

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewClickHouseEstimateStore(client, cfg.ClickHouse.Database+".cadence_estimates")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		attach(nil, store)
	}

	return app, nil
}
