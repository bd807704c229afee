package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// txClock reads the proposal timestamp so every endorser sees the same time.
type txClock struct {
	stub shim.ChaincodeStubInterface
}

func (c txClock) Now() (time.Time, error) {
	ts, err := c.stub.GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %v", err)
	}
	return ts.AsTime(), nil
}

// txEvents collects ledger events for a single transaction. Fabric keeps only
// the last SetEvent of a transaction, so they are published together.
type txEvents struct {
	events []ledger.Event
}

func (e *txEvents) Emit(event ledger.Event) {
	e.events = append(e.events, event)
}

// txScope binds the ledger to one transaction and its caller.
type txScope struct {
	ledger *ledger.Ledger
	caller ledger.Principal
	stub   shim.ChaincodeStubInterface
	events *txEvents
	logger *zap.Logger
}

func openScope(ctx contractapi.TransactionContextInterface, logger *zap.Logger) (*txScope, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %v", err)
	}

	stub := ctx.GetStub()
	events := &txEvents{}
	logger = logger.With(zap.String("tx_id", stub.GetTxID()))
	l := ledger.New(stub,
		ledger.WithClock(txClock{stub: stub}),
		ledger.WithEvents(events),
		ledger.WithLogger(logger),
	)

	return &txScope{
		ledger: l,
		caller: ledger.Principal(caller),
		stub:   stub,
		events: events,
		logger: logger,
	}, nil
}

// publish emits the collected events as one chaincode event named after the
// first of them. A failure is logged and does not fail the transaction.
func (s *txScope) publish() {
	if len(s.events.events) == 0 {
		return
	}
	payload, err := json.Marshal(s.events.events)
	if err != nil {
		s.logger.Error("failed to encode chaincode events", zap.Error(err))
		return
	}
	name := string(s.events.events[0].Type)
	if err := s.stub.SetEvent(name, payload); err != nil {
		s.logger.Error("failed to set chaincode event", zap.String("event", name), zap.Error(err))
	}
}

// reject logs a failed transaction function and passes the error through.
func (s *txScope) reject(function string, err error) error {
	s.logger.Warn("transaction rejected",
		zap.String("function", function),
		zap.String("caller", string(s.caller)),
		zap.Error(err))
	return err
}
