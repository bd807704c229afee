package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordService(t *testing.T) {
	f := newFixture(t)
	id := f.sell(t, "SN1", 1000)
	f.events.events = nil

	f.clock.now += 30
	serviceID, err := f.ledger.RecordService(provider, id, "movement cleaned", 250, "gasket")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), serviceID)

	record, err := f.ledger.ServiceRecord(serviceID)
	require.NoError(t, err)
	assert.Equal(t, ServiceRecord{
		ID:              serviceID,
		ProductID:       id,
		ServiceProvider: provider,
		ServiceDate:     f.clock.now,
		Description:     "movement cleaned",
		Cost:            250,
		PartsReplaced:   "gasket",
	}, *record)

	product, err := f.ledger.Product(id)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusServiced, product.Status)

	assert.Equal(t, []EventType{EventServiceRecorded, EventProductStatusUpdated}, f.events.types())
	assert.Equal(t, ProductStatusInWarranty, f.events.events[1].Payload["from"])
}

func TestRecordServiceOverridesAnyStatus(t *testing.T) {
	f := newFixture(t)
	unsold := f.register(t, "SN-NEW", 1000)
	expired := f.sell(t, "SN-OLD", 10)
	f.clock.now += 100

	for _, id := range []uint64{unsold, expired, expired} {
		_, err := f.ledger.RecordService(provider, id, "inspection", 0, "")
		require.NoError(t, err)
		product, err := f.ledger.Product(id)
		require.NoError(t, err)
		assert.Equal(t, ProductStatusServiced, product.Status)
	}

	product, err := f.ledger.Product(unsold)
	require.NoError(t, err)
	assert.Zero(t, product.SaleTimestamp, "service does not activate the warranty")
}

func TestRecordServiceRejections(t *testing.T) {
	f := newFixture(t)
	id := f.sell(t, "SN1", 1000)

	_, err := f.ledger.RecordService(provider, 99, "x", 0, "")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.ledger.RecordService(manufacturer, id, "x", 0, "")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = f.ledger.RecordService(owner, id, "x", 0, "")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = f.ledger.RecordService(provider, id, "", 0, "")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	product, err := f.ledger.Product(id)
	require.NoError(t, err)
	assert.Equal(t, ProductStatusInWarranty, product.Status)

	_, err = f.ledger.ServiceRecord(1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestServicesForProductOrder(t *testing.T) {
	f := newFixture(t)
	id := f.sell(t, "SN1", 1000)

	var want []uint64
	for _, d := range []string{"battery", "strap", "polish"} {
		serviceID, err := f.ledger.RecordService(provider, id, d, 10, d)
		require.NoError(t, err)
		want = append(want, serviceID)
	}

	got, err := f.ledger.ServicesForProduct(id)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = f.ledger.ServicesForProduct(99)
	assert.True(t, errors.Is(err, ErrNotFound))
}
