package contracts

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// WarrantyClaimContract handles warranty claims raised by product owners
type WarrantyClaimContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewWarrantyClaimContract returns a WarrantyClaimContract logging to logger
func NewWarrantyClaimContract(logger *zap.Logger) *WarrantyClaimContract {
	return &WarrantyClaimContract{logger: logger}
}

// SubmitClaim files a claim against a product under warranty. Only the
// current owner can submit.
func (w *WarrantyClaimContract) SubmitClaim(ctx contractapi.TransactionContextInterface,
	productID uint64, issueDescription string) (uint64, error) {

	scope, err := openScope(ctx, w.logger)
	if err != nil {
		return 0, err
	}

	id, err := scope.ledger.SubmitClaim(scope.caller, productID, issueDescription)
	if err != nil {
		return 0, scope.reject("SubmitClaim", err)
	}

	scope.publish()
	return id, nil
}

// UpdateClaimStatus lets the product's manufacturer resolve a claim
func (w *WarrantyClaimContract) UpdateClaimStatus(ctx contractapi.TransactionContextInterface,
	claimID uint64, status string, resolution string, serviceCost uint64) error {

	scope, err := openScope(ctx, w.logger)
	if err != nil {
		return err
	}

	// Status is validated after authorization, inside the ledger
	err = scope.ledger.UpdateClaimStatus(scope.caller, claimID, ledger.ClaimStatus(status), resolution, serviceCost)
	if err != nil {
		return scope.reject("UpdateClaimStatus", err)
	}

	scope.publish()
	return nil
}

// GetClaim retrieves a claim by id
func (w *WarrantyClaimContract) GetClaim(ctx contractapi.TransactionContextInterface,
	claimID uint64) (*ledger.WarrantyClaim, error) {

	scope, err := openScope(ctx, w.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.Claim(claimID)
}

// GetProductClaims returns the claim ids of a product in submission order
func (w *WarrantyClaimContract) GetProductClaims(ctx contractapi.TransactionContextInterface,
	productID uint64) ([]uint64, error) {

	scope, err := openScope(ctx, w.logger)
	if err != nil {
		return nil, err
	}
	return scope.ledger.ClaimsForProduct(productID)
}
