package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"channel_mirror/internal/domain"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

// declareTopology sets up a durable direct exchange with one bound queue.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ChannelReport is published once per processed channel.
type ChannelReport struct {
	RunID      string    `json:"run_id"`
	ChannelURL string    `json:"channel_url"`
	Watermark  string    `json:"watermark"`
	Documents  int       `json:"documents"`
	Valid      int       `json:"valid"`
	Failed     int       `json:"failed"`
	Inserted   int       `json:"inserted"`
	FetchError string    `json:"fetch_error,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChannelReport builds the message body for one channel pass.
func NewChannelReport(runID uuid.UUID, stats domain.ChannelStats) ChannelReport {
	report := ChannelReport{
		RunID:      runID.String(),
		ChannelURL: stats.ChannelURL,
		Watermark:  stats.Watermark.Format(time.DateOnly),
		Documents:  stats.Documents,
		Valid:      stats.Valid,
		Failed:     stats.Failed,
		Inserted:   stats.Inserted,
		Timestamp:  time.Now().UTC(),
	}
	if stats.FetchErr != nil {
		report.FetchError = stats.FetchErr.Error()
	}
	if stats.Err != nil {
		report.Error = stats.Err.Error()
	}
	return report
}

func (r *RabbitMQ) Publish(ctx context.Context, runID uuid.UUID, stats domain.ChannelStats) error {
	body, err := json.Marshal(NewChannelReport(runID, stats))
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: runID.String(),
			Body:          body,
			Timestamp:     time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	r.logger.Debug("published channel report",
		"channel", stats.ChannelURL,
		"inserted", stats.Inserted,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
