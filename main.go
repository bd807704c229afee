package main

import (
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/contracts"
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/logging"
)

func main() {
	logger, err := logging.New(os.Getenv("LOG_MODE"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Check if running as external service
	if os.Getenv("CHAINCODE_SERVER_ADDRESS") != "" {
		RunAsService(logger)
		return
	}

	chaincode, err := newChaincode(logger)
	if err != nil {
		logger.Fatal("Error creating product lifecycle chaincode", zap.Error(err))
	}
	if err := chaincode.Start(); err != nil {
		logger.Fatal("Error starting product lifecycle chaincode", zap.Error(err))
	}
}

// newChaincode wires every lifecycle contract into one chaincode
func newChaincode(logger *zap.Logger) (*contractapi.ContractChaincode, error) {
	return contractapi.NewChaincode(
		contracts.NewRoleManagementContract(logger),
		contracts.NewProductLedgerContract(logger),
		contracts.NewWarrantyClaimContract(logger),
		contracts.NewServiceLogContract(logger),
		contracts.NewLifecycleQueryContract(logger),
	)
}
