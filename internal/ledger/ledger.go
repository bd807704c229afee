// Package ledger implements the product lifecycle ledger: the identity
// registry, product ledger, claim workflow, service log and the read-only
// query facade over them.
//
// A Ledger is bound to one unit of work. Every operation validates all of its
// preconditions before the first write, and the State it runs against is
// expected to apply the writes of one operation atomically (a Fabric
// transaction write set, a pebble batch). Reads never observe writes made
// earlier in the same operation, matching Fabric stub semantics.
package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"
)

// State is the key/value access the ledger needs from its persistent store.
// GetState returns nil, nil for an absent key.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
}

// Clock supplies the current time of the operation.
type Clock interface {
	Now() (time.Time, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (time.Time, error)

// Now implements Clock.
func (f ClockFunc) Now() (time.Time, error) {
	return f()
}

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(func() (time.Time, error) {
	return time.Now(), nil
})

// EventSink receives notifications after an operation has written all of its
// state. Emit must not block on delivery; failures are the sink's concern.
type EventSink interface {
	Emit(Event)
}

type discardEvents struct{}

func (discardEvents) Emit(Event) {}

// Ledger executes lifecycle operations against a State.
type Ledger struct {
	state  State
	clock  Clock
	events EventSink
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source. The default is SystemClock.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithEvents sets the event sink. By default events are discarded.
func WithEvents(s EventSink) Option {
	return func(l *Ledger) {
		l.events = s
	}
}

// WithLogger sets the logger used for committed mutations.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New returns a Ledger over state.
func New(state State, opts ...Option) *Ledger {
	l := &Ledger{
		state:  state,
		clock:  SystemClock,
		events: discardEvents{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

const (
	adminKey = "admin"

	productEntity = "product"
	claimEntity   = "claim"
	serviceEntity = "service"
)

func entityKey(entity string, id uint64) string {
	return fmt.Sprintf("%s_%020d", entity, id)
}

// ProductKey returns the state key a product is stored under.
func ProductKey(productID uint64) string {
	return entityKey(productEntity, productID)
}

func counterKey(entity string) string {
	return "counter_" + entity
}

func serialKey(serial string) string {
	return "serial_" + serial
}

func roleKey(role Role, principal Principal) string {
	return fmt.Sprintf("role_%s_%s", role, principal)
}

func claimIndexKey(productID uint64) string {
	return entityKey("claims_by_product", productID)
}

func serviceIndexKey(productID uint64) string {
	return entityKey("services_by_product", productID)
}

func (l *Ledger) now() (int64, error) {
	t, err := l.clock.Now()
	if err != nil {
		return 0, errors.Annotate(err, "reading clock")
	}
	// Zero marks an unset timestamp, so a reading at or before the epoch
	// cannot be stored.
	if t.Unix() <= 0 {
		return 0, errors.Errorf("clock reading %d is not after the unix epoch", t.Unix())
	}
	return t.Unix(), nil
}

// getJSON loads key into v and reports whether the key was present.
func (l *Ledger) getJSON(key string, v interface{}) (bool, error) {
	data, err := l.state.GetState(key)
	if err != nil {
		return false, errors.Annotatef(err, "failed to read %s", key)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, errors.Annotatef(err, "failed to decode %s", key)
	}
	return true, nil
}

func (l *Ledger) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Annotatef(err, "failed to encode %s", key)
	}
	if err := l.state.PutState(key, data); err != nil {
		return errors.Annotatef(err, "failed to write %s", key)
	}
	return nil
}

// nextID returns the id the next entity of the given kind will receive.
// Counters start at 1; 0 is never assigned.
func (l *Ledger) nextID(entity string) (uint64, error) {
	data, err := l.state.GetState(counterKey(entity))
	if err != nil {
		return 0, errors.Annotatef(err, "failed to read %s counter", entity)
	}
	if data == nil {
		return 1, nil
	}
	id, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "corrupt %s counter", entity)
	}
	return id, nil
}

// advanceCounter records that id has been consumed.
func (l *Ledger) advanceCounter(entity string, id uint64) error {
	next := strconv.FormatUint(id+1, 10)
	if err := l.state.PutState(counterKey(entity), []byte(next)); err != nil {
		return errors.Annotatef(err, "failed to write %s counter", entity)
	}
	return nil
}

func (l *Ledger) readIndex(key string) ([]uint64, error) {
	ids := []uint64{}
	if _, err := l.getJSON(key, &ids); err != nil {
		return nil, errors.Trace(err)
	}
	return ids, nil
}

func (l *Ledger) appendIndex(key string, id uint64) error {
	ids, err := l.readIndex(key)
	if err != nil {
		return errors.Trace(err)
	}
	return l.putJSON(key, append(ids, id))
}

func (l *Ledger) emit(events ...Event) {
	for _, e := range events {
		if e.Payload == nil {
			e.Payload = map[string]interface{}{}
		}
		l.events.Emit(e)
	}
}
