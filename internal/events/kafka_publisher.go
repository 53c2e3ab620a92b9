package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the ticket event stream.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	WriteTimeout time.Duration
}

// NewKafkaWriter builds a synchronous writer that partitions by message key.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Transport: &kafka.Transport{
			ClientID:    cfg.ClientID,
			MetadataTTL: 10 * time.Second,
		},
	}
}

// KafkaPublisher forwards dispatched events to a Kafka topic as JSON,
// keyed by aggregate id so a ticket's events stay ordered.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaPublisher wraps writer.
func NewKafkaPublisher(writer MessageWriter, timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{writer: writer, timeout: timeout, logger: logger}
}

// Register subscribes the publisher to every ticket event.
func (p *KafkaPublisher) Register(d Dispatcher) {
	for _, eventType := range TicketEventTypes {
		d.Subscribe(eventType, p.Handle)
	}
}

// Handle writes one event.
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.AggregateID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(wctx, msg); err != nil {
		p.logger.Warn("kafka publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("aggregate_id", event.AggregateID),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
