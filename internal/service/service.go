// Package service runs the ledger as a standalone single-writer node over
// pebble.
package service

import (
	"sync"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/events"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/metrics"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/store"
)

// Service serializes mutations so that id allocation and the serial map stay
// consistent. Each mutation commits as one pebble batch; its events are
// published only after the commit succeeded.
type Service struct {
	mu        sync.Mutex
	store     *store.Store
	publisher events.Publisher
	clock     ledger.Clock
	metrics   *metrics.Registry
	logger    *zap.Logger
}

type Option func(*Service)

func WithClock(c ledger.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(st *store.Store, publisher events.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: publisher,
		clock:     ledger.SystemClock,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap makes admin the ledger administrator on first start. Restarting
// with the same administrator is a no-op.
func (s *Service) Bootstrap(admin ledger.Principal) error {
	return s.Update("initialize", func(l *ledger.Ledger) error {
		return l.Initialize(admin)
	})
}

// Update runs a mutating operation. The batch is committed only when fn
// succeeds; otherwise nothing is written and no event is published.
func (s *Service) Update(op string, fn func(*ledger.Ledger) error) (err error) {
	started := time.Now()
	defer func() { s.observe(op, started, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.store.Begin()
	defer tx.Discard()

	var buf events.Buffer
	l := ledger.New(tx,
		ledger.WithClock(s.clock),
		ledger.WithEvents(&buf),
		ledger.WithLogger(s.logger),
	)
	if err := fn(l); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Annotatef(err, "committing %s", op)
	}

	if len(buf.Events()) > 0 {
		s.publisher.Publish(buf.Events()...)
	}
	return nil
}

// View runs a read-only operation against a consistent snapshot. It does not
// wait for writers.
func (s *Service) View(op string, fn func(*ledger.Ledger) error) (err error) {
	started := time.Now()
	defer func() { s.observe(op, started, err) }()

	snap := s.store.Snapshot()
	defer snap.Close()

	return fn(ledger.New(snap,
		ledger.WithClock(s.clock),
		ledger.WithLogger(s.logger),
	))
}

func (s *Service) observe(op string, started time.Time, err error) {
	kind := ledger.Kind(err)
	if kind == "internal" {
		s.logger.Error("ledger operation failed", zap.String("operation", op), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, kind, started)
	}
}
