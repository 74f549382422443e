package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalPulse/internal/domain/models"
	"SignalPulse/internal/domain/repository"
	pkgkafka "SignalPulse/pkg/kafka"
)

// AlertsSchema creates the alerts journal table.
var AlertsSchema = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		ts          DateTime64(3),
		symbol      LowCardinality(String),
		side        LowCardinality(String),
		entry_price Float64,
		take_profit Float64,
		stop_loss   Float64
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(ts)
	ORDER BY (symbol, ts)`,
}

// ClickHouseAlertHistory implements AlertHistory for ClickHouse.
type ClickHouseAlertHistory struct {
	db    *sql.DB
	table string
}

// NewClickHouseAlertHistory creates ClickHouse alert history.
func NewClickHouseAlertHistory(db *sql.DB, table string) repository.AlertHistory {
	if table == "" {
		table = "alerts"
	}
	return &ClickHouseAlertHistory{db: db, table: table}
}

func (s *ClickHouseAlertHistory) Store(ctx context.Context, a *models.Alert) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, side, entry_price, take_profit, stop_loss) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		a.Timestamp,
		a.Symbol,
		string(a.Side),
		a.EntryPrice,
		a.TakeProfit,
		a.StopLoss,
	)
	return err
}

func (s *ClickHouseAlertHistory) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Alert, error) {
	q := fmt.Sprintf("SELECT ts, symbol, side, entry_price, take_profit, stop_loss FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var a models.Alert
		var side string
		if err := rows.Scan(&a.Timestamp, &a.Symbol, &side, &a.EntryPrice, &a.TakeProfit, &a.StopLoss); err != nil {
			return nil, err
		}
		a.Side = models.Side(side)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (s *ClickHouseAlertHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseAlertHistory) Close() error {
	return nil // connection pool managed by pkg
}

// KafkaAlertPublisher implements AlertPublisher for Kafka.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates a Kafka alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) repository.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) Publish(ctx context.Context, a *models.Alert) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.Symbol), a)
}

func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}
