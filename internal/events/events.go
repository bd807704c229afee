// Package events delivers ledger events outside the process once the
// operation that produced them has committed.
package events

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// Buffer collects the events of one operation until it commits.
type Buffer struct {
	events []ledger.Event
}

func (b *Buffer) Emit(e ledger.Event) {
	b.events = append(b.events, e)
}

// Events returns the collected events in emission order.
func (b *Buffer) Events() []ledger.Event {
	return b.events
}

// Publisher hands committed events to a transport. Publish must not block the
// caller on delivery.
type Publisher interface {
	Publish(events ...ledger.Event)
}

// LogPublisher writes every event to a logger. It is used when no broker is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(events ...ledger.Event) {
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			p.logger.Warn("failed to encode event payload", zap.String("event", string(e.Type)), zap.Error(err))
			continue
		}
		p.logger.Info("ledger event",
			zap.String("event", string(e.Type)),
			zap.Uint64("product_id", e.ProductID),
			zap.Int64("timestamp", e.Timestamp),
			zap.ByteString("payload", payload))
	}
}
