package contracts

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// LifecycleQueryContract serves read-only composite views
type LifecycleQueryContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewLifecycleQueryContract returns a LifecycleQueryContract logging to logger
func NewLifecycleQueryContract(logger *zap.Logger) *LifecycleQueryContract {
	return &LifecycleQueryContract{logger: logger}
}

// GetProductLifecycle returns a product with its claims, services and current
// warranty eligibility
func (q *LifecycleQueryContract) GetProductLifecycle(ctx contractapi.TransactionContextInterface,
	productID uint64) (*ledger.Lifecycle, error) {

	scope, err := openScope(ctx, q.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.ProductLifecycle(productID)
}

// GetWarrantyStatus returns the warranty window of a product as of the
// transaction time
func (q *LifecycleQueryContract) GetWarrantyStatus(ctx contractapi.TransactionContextInterface,
	productID uint64) (*ledger.WarrantyStatus, error) {

	scope, err := openScope(ctx, q.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.WarrantyStatus(productID)
}

// GetProductLifecycleBySerial resolves a serial number and returns the
// lifecycle of the product it names
func (q *LifecycleQueryContract) GetProductLifecycleBySerial(ctx contractapi.TransactionContextInterface,
	serialNumber string) (*ledger.Lifecycle, error) {

	scope, err := openScope(ctx, q.logger)
	if err != nil {
		return nil, err
	}
	id, err := scope.ledger.LookupBySerial(serialNumber)
	if err != nil {
		return nil, err
	}
	return scope.ledger.ProductLifecycle(id)
}
