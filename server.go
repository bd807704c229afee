package main

import (
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"go.uber.org/zap"
)

// RunAsService runs the chaincode as an external service
func RunAsService(logger *zap.Logger) {
	cc, err := newChaincode(logger)
	if err != nil {
		logger.Fatal("Error creating product lifecycle chaincode", zap.Error(err))
	}

	server := &shim.ChaincodeServer{
		CCID:    os.Getenv("CHAINCODE_ID"),
		Address: os.Getenv("CHAINCODE_SERVER_ADDRESS"),
		CC:      cc,
		TLSProps: shim.TLSProperties{
			Disabled: true,
		},
	}

	logger.Info("starting chaincode server",
		zap.String("ccid", server.CCID),
		zap.String("address", server.Address))
	if err := server.Start(); err != nil {
		logger.Fatal("Error starting product lifecycle chaincode server", zap.Error(err))
	}
}
