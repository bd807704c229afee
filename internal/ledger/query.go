package ledger

import (
	"github.com/juju/errors"
)

// ProductLifecycle returns a snapshot of productID together with its claim
// and service history. Warranty state is computed at call time; the stored
// status is never rewritten by this read.
func (l *Ledger) ProductLifecycle(productID uint64) (*Lifecycle, error) {
	product, err := l.Product(productID)
	if err != nil {
		return nil, err
	}
	claimIDs, err := l.readIndex(claimIndexKey(productID))
	if err != nil {
		return nil, errors.Trace(err)
	}
	serviceIDs, err := l.readIndex(serviceIndexKey(productID))
	if err != nil {
		return nil, errors.Trace(err)
	}

	active := false
	if product.Sold() {
		now, err := l.now()
		if err != nil {
			return nil, errors.Trace(err)
		}
		active = product.UnderWarrantyAt(now)
	}

	display := product.Status
	if display == ProductStatusInWarranty && !active {
		display = ProductStatusWarrantyExpired
	}

	return &Lifecycle{
		Product:        *product,
		ClaimIDs:       claimIDs,
		ServiceIDs:     serviceIDs,
		WarrantyActive: active,
		DisplayStatus:  display,
	}, nil
}

// WarrantyStatus describes the warranty window of productID as of now.
func (l *Ledger) WarrantyStatus(productID uint64) (*WarrantyStatus, error) {
	product, err := l.Product(productID)
	if err != nil {
		return nil, err
	}
	now, err := l.now()
	if err != nil {
		return nil, errors.Trace(err)
	}

	status := &WarrantyStatus{
		ProductID:     productID,
		Sold:          product.Sold(),
		SaleTimestamp: product.SaleTimestamp,
		ExpiresAt:     product.WarrantyExpiration(),
		Active:        product.UnderWarrantyAt(now),
		CheckedAt:     now,
	}
	if status.Active {
		status.RemainingSeconds = status.ExpiresAt - now
	}
	return status, nil
}
