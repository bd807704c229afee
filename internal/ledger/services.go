package ledger

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// RecordService appends a service record to productID and marks the product
// SERVICED whatever its previous status was.
func (l *Ledger) RecordService(caller Principal, productID uint64, description string, cost uint64, partsReplaced string) (uint64, error) {
	product, err := l.Product(productID)
	if err != nil {
		return 0, err
	}
	isProvider, err := l.IsAuthorized(caller, RoleServiceProvider)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if !isProvider {
		return 0, unauthorizedf("caller %q is not an authorized service provider", caller)
	}
	if description == "" {
		return 0, invalidInputf("service description must not be empty")
	}

	id, err := l.nextID(serviceEntity)
	if err != nil {
		return 0, errors.Trace(err)
	}
	now, err := l.now()
	if err != nil {
		return 0, errors.Trace(err)
	}

	record := ServiceRecord{
		ID:              id,
		ProductID:       productID,
		ServiceProvider: caller,
		ServiceDate:     now,
		Description:     description,
		Cost:            cost,
		PartsReplaced:   partsReplaced,
	}
	if err := l.putJSON(entityKey(serviceEntity, id), record); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.appendIndex(serviceIndexKey(productID), id); err != nil {
		return 0, errors.Trace(err)
	}

	previousStatus := product.Status
	product.Status = ProductStatusServiced
	if err := l.putJSON(entityKey(productEntity, productID), product); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.advanceCounter(serviceEntity, id); err != nil {
		return 0, errors.Trace(err)
	}

	l.logger.Debug("service recorded",
		zap.Uint64("service_id", id),
		zap.Uint64("product_id", productID),
		zap.String("caller", string(caller)))
	l.emit(
		Event{
			Type:      EventServiceRecorded,
			ProductID: productID,
			Timestamp: now,
			Payload: map[string]interface{}{
				"serviceId":       id,
				"serviceProvider": caller,
				"cost":            cost,
			},
		},
		statusUpdated(product, previousStatus),
	)
	return id, nil
}

// ServiceRecord returns the service record with the given id.
func (l *Ledger) ServiceRecord(serviceID uint64) (*ServiceRecord, error) {
	var record ServiceRecord
	found, err := l.getJSON(entityKey(serviceEntity, serviceID), &record)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !found {
		return nil, notFoundf("service record %d does not exist", serviceID)
	}
	return &record, nil
}

// ServicesForProduct returns the ids of the service records of productID in
// the order they were recorded.
func (l *Ledger) ServicesForProduct(productID uint64) ([]uint64, error) {
	if _, err := l.Product(productID); err != nil {
		return nil, err
	}
	return l.readIndex(serviceIndexKey(productID))
}
