package contracts

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// ServiceLogContract handles service history written by service providers
type ServiceLogContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewServiceLogContract returns a ServiceLogContract logging to logger
func NewServiceLogContract(logger *zap.Logger) *ServiceLogContract {
	return &ServiceLogContract{logger: logger}
}

// RecordService adds a service record and marks the product as serviced
func (s *ServiceLogContract) RecordService(ctx contractapi.TransactionContextInterface,
	productID uint64, description string, cost uint64, partsReplaced string) (uint64, error) {

	scope, err := openScope(ctx, s.logger)
	if err != nil {
		return 0, err
	}

	id, err := scope.ledger.RecordService(scope.caller, productID, description, cost, partsReplaced)
	if err != nil {
		return 0, scope.reject("RecordService", err)
	}

	scope.publish()
	return id, nil
}

// GetServiceRecord retrieves a service record by id
func (s *ServiceLogContract) GetServiceRecord(ctx contractapi.TransactionContextInterface,
	serviceID uint64) (*ledger.ServiceRecord, error) {

	scope, err := openScope(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.ServiceRecord(serviceID)
}

// GetProductServices returns the service record ids of a product in order
func (s *ServiceLogContract) GetProductServices(ctx contractapi.TransactionContextInterface,
	productID uint64) ([]uint64, error) {

	scope, err := openScope(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.ServicesForProduct(productID)
}
