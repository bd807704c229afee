package events

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/metrics"
)

const flushTimeout = 5 * time.Second

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher queues events in a bounded buffer and writes them to a topic
// from Run. When the buffer is full the event is dropped and counted.
type KafkaPublisher struct {
	writer  messageWriter
	queue   chan kafka.Message
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewKafkaPublisher creates a publisher for a comma-separated broker list.
func NewKafkaPublisher(brokers, topic string, buffer int, logger *zap.Logger, m *metrics.Registry) *KafkaPublisher {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return NewKafkaPublisherWith(w, buffer, logger, m)
}

// NewKafkaPublisherWith builds a publisher over an arbitrary writer.
func NewKafkaPublisherWith(w messageWriter, buffer int, logger *zap.Logger, m *metrics.Registry) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer:  w,
		queue:   make(chan kafka.Message, buffer),
		logger:  logger,
		metrics: m,
	}
}

// Publish enqueues events without blocking.
func (p *KafkaPublisher) Publish(events ...ledger.Event) {
	for _, e := range events {
		msg, err := encodeMessage(e)
		if err != nil {
			p.logger.Error("failed to encode event", zap.String("event", string(e.Type)), zap.Error(err))
			p.count(func(m *metrics.Registry) { m.EventsFailed.Inc() })
			continue
		}
		select {
		case p.queue <- msg:
		default:
			p.logger.Warn("event buffer full, dropping event",
				zap.String("event", string(e.Type)),
				zap.Uint64("product_id", e.ProductID))
			p.count(func(m *metrics.Registry) { m.EventsDropped.Inc() })
		}
	}
}

// Run delivers queued messages until ctx is done, then flushes what is
// still buffered.
func (p *KafkaPublisher) Run(ctx context.Context) error {
	defer p.close()
	for {
		select {
		case msg := <-p.queue:
			p.write(ctx, msg)
		case <-ctx.Done():
			return p.flush()
		}
	}
}

func (p *KafkaPublisher) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	for {
		select {
		case msg := <-p.queue:
			p.write(ctx, msg)
		default:
			return nil
		}
	}
}

func (p *KafkaPublisher) write(ctx context.Context, msg kafka.Message) {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event", zap.ByteString("key", msg.Key), zap.Error(err))
		p.count(func(m *metrics.Registry) { m.EventsFailed.Inc() })
		return
	}
	p.count(func(m *metrics.Registry) { m.EventsPublished.Inc() })
}

func (p *KafkaPublisher) close() {
	if c, ok := p.writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			p.logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
}

func (p *KafkaPublisher) count(fn func(*metrics.Registry)) {
	if p.metrics != nil {
		fn(p.metrics)
	}
}

// encodeMessage keys messages by product so one product's events stay on one
// partition, in order.
func encodeMessage(e ledger.Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatUint(e.ProductID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "message-id", Value: []byte(uuid.NewString())},
		},
	}, nil
}
