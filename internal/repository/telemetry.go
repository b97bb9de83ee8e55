package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StrideSense/internal/domain/models"
	"StrideSense/internal/domain/repository"
	pkgch "StrideSense/pkg/clickhouse"
	pkgkafka "StrideSense/pkg/kafka"
)

// KafkaCadencePublisher implements Publisher for Kafka.
type KafkaCadencePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaCadencePublisher creates a Kafka cadence publisher.
func NewKafkaCadencePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaCadencePublisher{producer: producer, topic: topic}
}

func cadenceKey(session string, method models.Method) []byte {
	return []byte(session + "/" + string(method))
}

func (p *KafkaCadencePublisher) Publish(ctx context.Context, session string, method models.Method, pt models.CadencePoint) error {
	return p.producer.Publish(ctx, p.topic, cadenceKey(session, method), map[string]interface{}{
		"session": session,
		"method":  string(method),
		"t":       pt.TimeMS,
		"spm":     pt.StepsPerMinute,
	})
}

func (p *KafkaCadencePublisher) PublishBatch(ctx context.Context, session string, method models.Method, pts []models.CadencePoint) error {
	if len(pts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(pts))
	for i, pt := range pts {
		msgs[i] = pkgkafka.Message{
			Key: cadenceKey(session, method),
			Value: map[string]interface{}{
				"session": session,
				"method":  string(method),
				"t":       pt.TimeMS,
				"spm":     pt.StepsPerMinute,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCadencePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// ClickHouseEstimateStore implements Storage for ClickHouse.
type ClickHouseEstimateStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
}

// NewClickHouseEstimateStore creates ClickHouse estimate storage.
func NewClickHouseEstimateStore(client *pkgch.Client, table string) repository.Storage {
	return &ClickHouseEstimateStore{client: client, db: client.DB(), table: table}
}

func (s *ClickHouseEstimateStore) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            session    String,
            method     LowCardinality(String),
            window_start DateTime64(3),
            window_end   DateTime64(3),
            spm        Float64
        ) ENGINE = MergeTree()
        ORDER BY (session, method, window_start)
    `, s.table)
	return s.client.InitSchema(ctx, []string{stmt})
}

func (s *ClickHouseEstimateStore) Store(ctx context.Context, session string, e models.CadenceEstimate) error {
	q := fmt.Sprintf("INSERT INTO %s (session, method, window_start, window_end, spm) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		session,
		string(e.Method),
		time.UnixMilli(e.Window.StartMS).UTC(),
		time.UnixMilli(e.Window.EndMS).UTC(),
		e.StepsPerMinute,
	)
	return err
}

func (s *ClickHouseEstimateStore) StoreBatch(ctx context.Context, session string, es []models.CadenceEstimate) error {
	if len(es) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(es); start += chunkSize {
		end := start + chunkSize
		if end > len(es) {
			end = len(es)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, e := range es[start:end] {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				session,
				string(e.Method),
				time.UnixMilli(e.Window.StartMS).UTC(),
				time.UnixMilli(e.Window.EndMS).UTC(),
				e.StepsPerMinute,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (session, method, window_start, window_end, spm) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseEstimateStore) Query(ctx context.Context, session string, method models.Method, from, to time.Time, limit int) ([]models.CadenceEstimate, error) {
	q := fmt.Sprintf("SELECT method, window_start, window_end, spm FROM %s WHERE session = ? AND method = ? AND window_start >= ? AND window_start <= ? ORDER BY window_start ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, session, string(method), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var out []models.CadenceEstimate
	for rows.Next() {
		var (
			m          string
			start, end time.Time
			e          models.CadenceEstimate
		)
		if err := rows.Scan(&m, &start, &end, &e.StepsPerMinute); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		e.Method = models.Method(m)
		e.Window = models.AnalysisWindow{StartMS: start.UnixMilli(), EndMS: end.UnixMilli()}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *ClickHouseEstimateStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseEstimateStore) Close() error {
	return s.client.Close()
}
