package contracts

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

const (
	adminID        = "x509::CN=admin,OU=client::CN=ca.luxebags.example.com"
	manufacturerID = "x509::CN=atelier,OU=client::CN=ca.luxebags.example.com"
	ownerID        = "x509::CN=alice,OU=client::CN=ca.luxuryretail.example.com"
	providerID     = "x509::CN=repairs,OU=client::CN=ca.luxuryretail.example.com"
)

type fakeIdentity struct {
	id string
}

func (f fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f fakeIdentity) GetMSPID() (string, error) { return "LuxeBagsMSP", nil }
func (f fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f fakeIdentity) AssertAttributeValue(string, string) error { return nil }
func (f fakeIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

// network drives the contracts against a MockStub with a controlled
// transaction time.
type network struct {
	stub *shimtest.MockStub
	now  time.Time
	txs  int

	roles    *RoleManagementContract
	products *ProductLedgerContract
	claims   *WarrantyClaimContract
	services *ServiceLogContract
	queries  *LifecycleQueryContract
}

func newNetwork(t *testing.T) *network {
	t.Helper()
	logger := zap.NewNop()
	n := &network{
		stub:     shimtest.NewMockStub("lifecycle", nil),
		now:      time.Unix(1_700_000_000, 0),
		roles:    NewRoleManagementContract(logger),
		products: NewProductLedgerContract(logger),
		claims:   NewWarrantyClaimContract(logger),
		services: NewServiceLogContract(logger),
		queries:  NewLifecycleQueryContract(logger),
	}

	require.NoError(t, n.roles.InitLedger(n.as(adminID)))
	require.NoError(t, n.roles.AuthorizeRole(n.as(adminID), manufacturerID, "MANUFACTURER"))
	require.NoError(t, n.roles.AuthorizeRole(n.as(adminID), providerID, "SERVICE_PROVIDER"))
	n.drainEvents()
	return n
}

// as starts a new mock transaction invoked by caller.
func (n *network) as(caller string) contractapi.TransactionContextInterface {
	n.txs++
	n.stub.MockTransactionStart(fmt.Sprintf("tx%d", n.txs))
	n.stub.TxTimestamp = timestamppb.New(n.now)

	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(n.stub)
	ctx.SetClientIdentity(fakeIdentity{id: caller})
	return ctx
}

func (n *network) drainEvents() {
	for {
		select {
		case <-n.stub.ChaincodeEventsChannel:
		default:
			return
		}
	}
}

// nextEvent returns the next chaincode event and its decoded ledger events.
func (n *network) nextEvent(t *testing.T) (string, []ledger.Event) {
	t.Helper()
	select {
	case ev := <-n.stub.ChaincodeEventsChannel:
		var events []ledger.Event
		require.NoError(t, json.Unmarshal(ev.Payload, &events))
		return ev.EventName, events
	default:
		t.Fatal("no chaincode event was set")
		return "", nil
	}
}

func (n *network) assertNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-n.stub.ChaincodeEventsChannel:
		t.Fatalf("unexpected chaincode event %s", ev.EventName)
	default:
	}
}

func TestInitLedger(t *testing.T) {
	n := newNetwork(t)

	admin, err := n.roles.GetAdministrator(n.as(ownerID))
	require.NoError(t, err)
	assert.Equal(t, adminID, admin)

	require.NoError(t, n.roles.InitLedger(n.as(adminID)))
	err = n.roles.InitLedger(n.as(ownerID))
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))
}

func TestAuthorizeRole(t *testing.T) {
	n := newNetwork(t)

	ok, err := n.roles.IsAuthorized(n.as(ownerID), manufacturerID, "MANUFACTURER")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = n.roles.IsAuthorized(n.as(ownerID), ownerID, "MANUFACTURER")
	require.NoError(t, err)
	assert.False(t, ok)

	err = n.roles.AuthorizeRole(n.as(manufacturerID), ownerID, "MANUFACTURER")
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))

	err = n.roles.AuthorizeRole(n.as(manufacturerID), ownerID, "OWNER")
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))

	err = n.roles.AuthorizeRole(n.as(adminID), ownerID, "OWNER")
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))
	n.assertNoEvent(t)

	grant, err := n.roles.GetRoleGrant(n.as(ownerID), providerID, "SERVICE_PROVIDER")
	require.NoError(t, err)
	assert.Equal(t, ledger.Principal(adminID), grant.GrantedBy)

	caller, err := n.roles.GetCallerID(n.as(ownerID))
	require.NoError(t, err)
	assert.Equal(t, ownerID, caller)
}

func TestProductLifecycleOverChaincode(t *testing.T) {
	n := newNetwork(t)

	id, err := n.products.RegisterProduct(n.as(manufacturerID), "Tote", "T-24", "SN1", 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	name, events := n.nextEvent(t)
	assert.Equal(t, "ProductRegistered", name)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ProductID)

	product, err := n.products.GetProduct(n.as(ownerID), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.Principal(manufacturerID), product.Manufacturer)
	assert.Equal(t, n.now.Unix(), product.ManufacturedAt, "time comes from the transaction timestamp")

	bySerial, err := n.products.GetProductIDBySerial(n.as(ownerID), "SN1")
	require.NoError(t, err)
	assert.Equal(t, id, bySerial)

	n.now = n.now.Add(time.Hour)
	sale := n.now.Unix()
	require.NoError(t, n.products.TransferOwnership(n.as(manufacturerID), id, ownerID))

	name, events = n.nextEvent(t)
	assert.Equal(t, "ProductSold", name)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventProductStatusUpdated, events[1].Type)

	expires, err := n.products.GetWarrantyExpiration(n.as(ownerID), id)
	require.NoError(t, err)
	assert.Equal(t, sale+1000, expires)

	n.now = time.Unix(sale+500, 0)
	active, err := n.products.IsUnderWarranty(n.as(ownerID), id)
	require.NoError(t, err)
	assert.True(t, active)

	claimID, err := n.claims.SubmitClaim(n.as(ownerID), id, "zip broken")
	require.NoError(t, err)
	name, _ = n.nextEvent(t)
	assert.Equal(t, "WarrantyClaimSubmitted", name)

	_, err = n.claims.SubmitClaim(n.as(manufacturerID), id, "zip broken")
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))

	require.NoError(t, n.claims.UpdateClaimStatus(n.as(manufacturerID), claimID, "COMPLETED", "zip replaced", 40))
	name, _ = n.nextEvent(t)
	assert.Equal(t, "ClaimStatusUpdated", name)

	claim, err := n.claims.GetClaim(n.as(ownerID), claimID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ClaimStatusCompleted, claim.Status)
	assert.Equal(t, sale+500, claim.ResolutionDate)

	err = n.claims.UpdateClaimStatus(n.as(manufacturerID), claimID, "ARCHIVED", "", 0)
	assert.True(t, errors.Is(err, ledger.ErrInvalidInput))

	serviceID, err := n.services.RecordService(n.as(providerID), id, "stitching", 25, "thread")
	require.NoError(t, err)
	name, events = n.nextEvent(t)
	assert.Equal(t, "ServiceRecorded", name)
	assert.Len(t, events, 2)

	record, err := n.services.GetServiceRecord(n.as(ownerID), serviceID)
	require.NoError(t, err)
	assert.Equal(t, "thread", record.PartsReplaced)

	claimIDs, err := n.claims.GetProductClaims(n.as(ownerID), id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{claimID}, claimIDs)

	serviceIDs, err := n.services.GetProductServices(n.as(ownerID), id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{serviceID}, serviceIDs)

	lc, err := n.queries.GetProductLifecycle(n.as(ownerID), id)
	require.NoError(t, err)
	assert.Equal(t, ledger.ProductStatusServiced, lc.Product.Status)
	assert.True(t, lc.WarrantyActive)

	lc, err = n.queries.GetProductLifecycleBySerial(n.as(ownerID), "SN1")
	require.NoError(t, err)
	assert.Equal(t, id, lc.Product.ID)

	n.now = time.Unix(sale+1500, 0)
	_, err = n.claims.SubmitClaim(n.as(ownerID), id, "handle loose")
	assert.True(t, errors.Is(err, ledger.ErrWarrantyExpired))

	ws, err := n.queries.GetWarrantyStatus(n.as(ownerID), id)
	require.NoError(t, err)
	assert.False(t, ws.Active)
	assert.Equal(t, sale+1000, ws.ExpiresAt)
}

func TestRejectedTransactionsSetNoEvent(t *testing.T) {
	n := newNetwork(t)

	_, err := n.products.RegisterProduct(n.as(ownerID), "Tote", "T-24", "SN1", 1000)
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))
	n.assertNoEvent(t)

	_, err = n.products.RegisterProduct(n.as(manufacturerID), "Tote", "T-24", "SN1", 1000)
	require.NoError(t, err)
	n.drainEvents()

	_, err = n.products.RegisterProduct(n.as(manufacturerID), "Tote", "T-24", "SN1", 1000)
	assert.True(t, errors.Is(err, ledger.ErrDuplicateSerial))
	n.assertNoEvent(t)

	err = n.products.TransferOwnership(n.as(manufacturerID), 7, ownerID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, err = n.claims.SubmitClaim(n.as(manufacturerID), 1, "never sold")
	assert.True(t, errors.Is(err, ledger.ErrNotSold))

	_, err = n.services.RecordService(n.as(ownerID), 1, "polish", 0, "")
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))
	n.assertNoEvent(t)
}

func TestTxClock(t *testing.T) {
	n := newNetwork(t)
	ctx := n.as(ownerID)

	now, err := txClock{stub: ctx.GetStub()}.Now()
	require.NoError(t, err)
	assert.True(t, n.now.Equal(now))
}

func TestGetProductsByOwner(t *testing.T) {
	n := newNetwork(t)
	for _, serial := range []string{"SN1", "SN2", "SN3"} {
		_, err := n.products.RegisterProduct(n.as(manufacturerID), "Tote", "T-24", serial, 1000)
		require.NoError(t, err)
	}
	require.NoError(t, n.products.TransferOwnership(n.as(manufacturerID), 1, ownerID))
	require.NoError(t, n.products.TransferOwnership(n.as(manufacturerID), 3, ownerID))

	owned, err := n.products.GetProductsByOwner(n.as(ownerID), ownerID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, uint64(1), owned[0].ID)
	assert.Equal(t, uint64(3), owned[1].ID)

	owned, err = n.products.GetProductsByOwner(n.as(ownerID), providerID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestGetProductHistory(t *testing.T) {
	n := newNetwork(t)
	_, err := n.products.RegisterProduct(n.as(manufacturerID), "Tote", "T-24", "SN1", 1000)
	require.NoError(t, err)

	// MockStub keeps no key history.
	_, err = n.products.GetProductHistory(n.as(ownerID), 1)
	assert.Error(t, err)
}
