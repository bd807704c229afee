package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// ProductLedgerContract handles product registration, sale and warranty
// queries
type ProductLedgerContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewProductLedgerContract returns a ProductLedgerContract logging to logger
func NewProductLedgerContract(logger *zap.Logger) *ProductLedgerContract {
	return &ProductLedgerContract{logger: logger}
}

// RegisterProduct creates a product owned by the calling manufacturer and
// returns its id
func (p *ProductLedgerContract) RegisterProduct(ctx contractapi.TransactionContextInterface,
	name string, model string, serialNumber string, warrantyDuration int64) (uint64, error) {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return 0, err
	}

	id, err := scope.ledger.RegisterProduct(scope.caller, name, model, serialNumber, warrantyDuration)
	if err != nil {
		return 0, scope.reject("RegisterProduct", err)
	}

	scope.publish()
	return id, nil
}

// TransferOwnership transfers a product to a new owner. The first transfer
// starts the warranty.
func (p *ProductLedgerContract) TransferOwnership(ctx contractapi.TransactionContextInterface,
	productID uint64, newOwner string) error {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return err
	}

	if err := scope.ledger.TransferOwnership(scope.caller, productID, ledger.Principal(newOwner)); err != nil {
		return scope.reject("TransferOwnership", err)
	}

	scope.publish()
	return nil
}

// GetProduct retrieves a product by id
func (p *ProductLedgerContract) GetProduct(ctx contractapi.TransactionContextInterface,
	productID uint64) (*ledger.Product, error) {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.Product(productID)
}

// GetProductIDBySerial resolves a serial number to a product id
func (p *ProductLedgerContract) GetProductIDBySerial(ctx contractapi.TransactionContextInterface,
	serialNumber string) (uint64, error) {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return 0, err
	}
	return scope.ledger.LookupBySerial(serialNumber)
}

// IsUnderWarranty checks the warranty window against the transaction time
func (p *ProductLedgerContract) IsUnderWarranty(ctx contractapi.TransactionContextInterface,
	productID uint64) (bool, error) {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return false, err
	}
	return scope.ledger.IsUnderWarranty(productID)
}

// GetWarrantyExpiration returns the warranty end as unix seconds, 0 if unsold
func (p *ProductLedgerContract) GetWarrantyExpiration(ctx contractapi.TransactionContextInterface,
	productID uint64) (int64, error) {

	scope, err := openScope(ctx, p.logger)
	if err != nil {
		return 0, err
	}
	return scope.ledger.WarrantyExpirationTime(productID)
}

// GetProductHistory returns every committed version of a product
func (p *ProductLedgerContract) GetProductHistory(ctx contractapi.TransactionContextInterface,
	productID uint64) ([]*ProductHistoryRecord, error) {

	resultsIterator, err := ctx.GetStub().GetHistoryForKey(ledger.ProductKey(productID))
	if err != nil {
		return nil, fmt.Errorf("failed to read product history: %v", err)
	}
	defer resultsIterator.Close()

	history := []*ProductHistoryRecord{}
	for resultsIterator.HasNext() {
		response, err := resultsIterator.Next()
		if err != nil {
			return nil, err
		}

		record := &ProductHistoryRecord{
			TxID:     response.TxId,
			IsDelete: response.IsDelete,
		}
		if response.Timestamp != nil {
			record.Timestamp = response.Timestamp.GetSeconds()
		}
		if !response.IsDelete {
			var product ledger.Product
			if err := json.Unmarshal(response.Value, &product); err != nil {
				return nil, err
			}
			record.Record = &product
		}
		history = append(history, record)
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("product %d does not exist", productID)
	}
	return history, nil
}

// GetProductsByOwner returns the products currently owned by owner, in id order
func (p *ProductLedgerContract) GetProductsByOwner(ctx contractapi.TransactionContextInterface,
	owner string) ([]*ledger.Product, error) {

	resultsIterator, err := ctx.GetStub().GetStateByRange(ledger.ProductKey(0), "product_~")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %v", err)
	}
	defer resultsIterator.Close()

	owned := []*ledger.Product{}
	for resultsIterator.HasNext() {
		response, err := resultsIterator.Next()
		if err != nil {
			return nil, err
		}

		var product ledger.Product
		if err := json.Unmarshal(response.Value, &product); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %v", response.Key, err)
		}
		if product.CurrentOwner == ledger.Principal(owner) {
			owned = append(owned, &product)
		}
	}
	return owned, nil
}
