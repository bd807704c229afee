package ledger

import (
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// SubmitClaim files a warranty claim for productID on behalf of its current
// owner and returns the claim id.
func (l *Ledger) SubmitClaim(caller Principal, productID uint64, issueDescription string) (uint64, error) {
	product, err := l.Product(productID)
	if err != nil {
		return 0, err
	}
	if caller != product.CurrentOwner {
		return 0, unauthorizedf("only the current owner of product %d can submit a claim", productID)
	}
	if !product.Sold() {
		return 0, notSoldf("product %d has not been sold", productID)
	}
	now, err := l.now()
	if err != nil {
		return 0, errors.Trace(err)
	}
	if !product.UnderWarrantyAt(now) {
		return 0, warrantyExpiredf("warranty of product %d expired at %d", productID, product.WarrantyExpiration())
	}
	if issueDescription == "" {
		return 0, invalidInputf("issue description must not be empty")
	}

	id, err := l.nextID(claimEntity)
	if err != nil {
		return 0, errors.Trace(err)
	}

	claim := WarrantyClaim{
		ID:               id,
		ProductID:        productID,
		Claimant:         caller,
		IssueDescription: issueDescription,
		ClaimDate:        now,
		Status:           ClaimStatusPending,
	}
	if err := l.putJSON(entityKey(claimEntity, id), claim); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.appendIndex(claimIndexKey(productID), id); err != nil {
		return 0, errors.Trace(err)
	}
	if err := l.advanceCounter(claimEntity, id); err != nil {
		return 0, errors.Trace(err)
	}

	l.logger.Debug("warranty claim submitted",
		zap.Uint64("claim_id", id),
		zap.Uint64("product_id", productID),
		zap.String("caller", string(caller)))
	l.emit(Event{
		Type:      EventWarrantyClaimSubmitted,
		ProductID: productID,
		Timestamp: now,
		Payload: map[string]interface{}{
			"claimId":  id,
			"claimant": caller,
		},
	})
	return id, nil
}

// UpdateClaimStatus sets the status, resolution and cost of a claim. Only the
// manufacturer of the claimed product may call it. Any status may follow any
// other; moving to COMPLETED stamps the resolution date, every time.
func (l *Ledger) UpdateClaimStatus(caller Principal, claimID uint64, status ClaimStatus, resolution string, serviceCost uint64) error {
	claim, err := l.Claim(claimID)
	if err != nil {
		return err
	}
	product, err := l.Product(claim.ProductID)
	if err != nil {
		return err
	}
	if caller != product.Manufacturer {
		return unauthorizedf("only the manufacturer of product %d can update claim %d", product.ID, claimID)
	}
	if _, err := ParseClaimStatus(string(status)); err != nil {
		return err
	}

	previous := claim.Status
	claim.Status = status
	claim.Resolution = resolution
	claim.ServiceCost = serviceCost
	var now int64
	if status == ClaimStatusCompleted {
		if now, err = l.now(); err != nil {
			return errors.Trace(err)
		}
		claim.ResolutionDate = now
	}

	if err := l.putJSON(entityKey(claimEntity, claimID), claim); err != nil {
		return errors.Trace(err)
	}

	l.logger.Debug("claim status updated",
		zap.Uint64("claim_id", claimID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("caller", string(caller)))
	l.emit(Event{
		Type:      EventClaimStatusUpdated,
		ProductID: claim.ProductID,
		Timestamp: now,
		Payload: map[string]interface{}{
			"claimId": claimID,
			"from":    previous,
			"to":      status,
		},
	})
	return nil
}

// Claim returns the claim with the given id.
func (l *Ledger) Claim(claimID uint64) (*WarrantyClaim, error) {
	var claim WarrantyClaim
	found, err := l.getJSON(entityKey(claimEntity, claimID), &claim)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !found {
		return nil, notFoundf("claim %d does not exist", claimID)
	}
	return &claim, nil
}

// ClaimsForProduct returns the ids of the claims filed against productID in
// submission order.
func (l *Ledger) ClaimsForProduct(productID uint64) ([]uint64, error) {
	if _, err := l.Product(productID); err != nil {
		return nil, err
	}
	return l.readIndex(claimIndexKey(productID))
}
