package ledger

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// RegisterProduct records a new product manufactured by caller and returns
// its id. The caller becomes both manufacturer and first owner.
func (l *Ledger) RegisterProduct(caller Principal, name, model, serial string, warrantyDuration int64) (uint64, error) {
	isManufacturer, err := l.IsAuthorized(caller, RoleManufacturer)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if !isManufacturer {
		return 0, unauthorizedf("caller %q is not an authorized manufacturer", caller)
	}
	if serial == "" {
		return 0, invalidInputf("serial number must not be empty")
	}
	if warrantyDuration <= 0 {
		return 0, invalidInputf("warranty duration must be positive, got %d", warrantyDuration)
	}

	existing, err := l.state.GetState(serialKey(serial))
	if err != nil {
		return 0, errors.Annotate(err, "failed to read serial mapping")
	}
	if existing != nil {
		return 0, duplicateSerialf("serial number %q is already registered", serial)
	}

	id, err := l.nextID(productEntity)
	if err != nil {
		return 0, errors.Trace(err)
	}
	now, err := l.now()
	if err != nil {
		return 0, errors.Trace(err)
	}

	product := Product{
		ID:               id,
		Name:             name,
		Model:            model,
		SerialNumber:     serial,
		Manufacturer:     caller,
		CurrentOwner:     caller,
		ManufacturedAt:   now,
		WarrantyDuration: warrantyDuration,
		Status:           ProductStatusManufactured,
	}
	if err := l.putJSON(entityKey(productEntity, id), product); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.putJSON(serialKey(serial), id); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.advanceCounter(productEntity, id); err != nil {
		return 0, errors.Trace(err)
	}

	l.logger.Debug("product registered",
		zap.Uint64("product_id", id),
		zap.String("serial", serial),
		zap.String("caller", string(caller)))
	l.emit(Event{
		Type:      EventProductRegistered,
		ProductID: id,
		Timestamp: now,
		Payload: map[string]interface{}{
			"serialNumber": serial,
			"manufacturer": caller,
			"name":         name,
			"model":        model,
		},
	})
	return id, nil
}

// TransferOwnership hands productID to newOwner. The first transfer is the
// sale: it stamps the sale time once and starts the warranty window. Later
// transfers keep both.
func (l *Ledger) TransferOwnership(caller Principal, productID uint64, newOwner Principal) error {
	product, err := l.Product(productID)
	if err != nil {
		return err
	}
	if caller != product.Manufacturer && caller != product.CurrentOwner {
		return unauthorizedf("caller %q is neither manufacturer nor owner of product %d", caller, productID)
	}
	if newOwner.IsNull() {
		return invalidInputf("new owner must not be the null principal")
	}

	previousOwner := product.CurrentOwner
	previousStatus := product.Status
	if !product.Sold() {
		now, err := l.now()
		if err != nil {
			return errors.Trace(err)
		}
		product.SaleTimestamp = now
		product.Status = ProductStatusInWarranty
	}
	product.CurrentOwner = newOwner

	if err := l.putJSON(entityKey(productEntity, productID), product); err != nil {
		return errors.Trace(err)
	}

	l.logger.Debug("ownership transferred",
		zap.Uint64("product_id", productID),
		zap.String("from", string(previousOwner)),
		zap.String("to", string(newOwner)),
		zap.String("caller", string(caller)))
	events := []Event{{
		Type:      EventProductSold,
		ProductID: productID,
		Timestamp: product.SaleTimestamp,
		Payload: map[string]interface{}{
			"from": previousOwner,
			"to":   newOwner,
		},
	}}
	if product.Status != previousStatus {
		events = append(events, statusUpdated(product, previousStatus))
	}
	l.emit(events...)
	return nil
}

// IsUnderWarranty reports whether productID has been sold and the current
// time is still inside its warranty window. It is recomputed on every call.
func (l *Ledger) IsUnderWarranty(productID uint64) (bool, error) {
	product, err := l.Product(productID)
	if err != nil {
		return false, err
	}
	if !product.Sold() {
		return false, nil
	}
	now, err := l.now()
	if err != nil {
		return false, errors.Trace(err)
	}
	return product.UnderWarrantyAt(now), nil
}

// WarrantyExpirationTime returns the end of the warranty window of productID,
// or 0 if it was never sold.
func (l *Ledger) WarrantyExpirationTime(productID uint64) (int64, error) {
	product, err := l.Product(productID)
	if err != nil {
		return 0, err
	}
	return product.WarrantyExpiration(), nil
}

// LookupBySerial resolves a serial number to its product id.
func (l *Ledger) LookupBySerial(serial string) (uint64, error) {
	var id uint64
	found, err := l.getJSON(serialKey(serial), &id)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if !found || id == 0 {
		return 0, notFoundf("serial number %q is not registered", serial)
	}
	return id, nil
}

// Product returns the product with the given id.
func (l *Ledger) Product(productID uint64) (*Product, error) {
	var product Product
	found, err := l.getJSON(entityKey(productEntity, productID), &product)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !found {
		return nil, notFoundf("product %d does not exist", productID)
	}
	return &product, nil
}

func statusUpdated(product *Product, previous ProductStatus) Event {
	return Event{
		Type:      EventProductStatusUpdated,
		ProductID: product.ID,
		Payload: map[string]interface{}{
			"from": previous,
			"to":   product.Status,
		},
	}
}
