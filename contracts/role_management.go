package contracts

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// RoleManagementContract handles the administrator and role grants
type RoleManagementContract struct {
	contractapi.Contract
	logger *zap.Logger
}

// NewRoleManagementContract returns a RoleManagementContract logging to logger
func NewRoleManagementContract(logger *zap.Logger) *RoleManagementContract {
	return &RoleManagementContract{logger: logger}
}

// InitLedger makes the invoking identity the administrator. It is called once
// by the deploying organization; repeating it as the administrator is a no-op.
func (r *RoleManagementContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return err
	}
	if err := scope.ledger.Initialize(scope.caller); err != nil {
		return scope.reject("InitLedger", err)
	}
	return nil
}

// AuthorizeRole grants MANUFACTURER or SERVICE_PROVIDER to a principal
func (r *RoleManagementContract) AuthorizeRole(ctx contractapi.TransactionContextInterface,
	principal string, role string) error {

	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return err
	}

	// Role is validated after authorization, inside the ledger
	if err := scope.ledger.Authorize(scope.caller, ledger.Principal(principal), ledger.Role(role)); err != nil {
		return scope.reject("AuthorizeRole", err)
	}

	scope.publish()
	return nil
}

// IsAuthorized checks whether a principal holds a role
func (r *RoleManagementContract) IsAuthorized(ctx contractapi.TransactionContextInterface,
	principal string, role string) (bool, error) {

	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return false, err
	}
	parsed, err := ledger.ParseRole(role)
	if err != nil {
		return false, err
	}
	return scope.ledger.IsAuthorized(ledger.Principal(principal), parsed)
}

// GetRoleGrant returns who granted a role to a principal
func (r *RoleManagementContract) GetRoleGrant(ctx contractapi.TransactionContextInterface,
	principal string, role string) (*ledger.RoleGrant, error) {

	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return nil, err
	}
	parsed, err := ledger.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return scope.ledger.RoleGrant(ledger.Principal(principal), parsed)
}

// GetAdministrator returns the administrator identity
func (r *RoleManagementContract) GetAdministrator(ctx contractapi.TransactionContextInterface) (string, error) {
	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return "", err
	}
	admin, err := scope.ledger.Administrator()
	if err != nil {
		return "", err
	}
	return string(admin), nil
}

// GetCallerID returns the identity the ledger sees for the invoker, so
// administrators know what to pass to AuthorizeRole
func (r *RoleManagementContract) GetCallerID(ctx contractapi.TransactionContextInterface) (string, error) {
	scope, err := openScope(ctx, r.logger)
	if err != nil {
		return "", err
	}
	return string(scope.caller), nil
}
