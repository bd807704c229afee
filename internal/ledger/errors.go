package ledger

import (
	"github.com/juju/errors"
)

// Error kinds returned by ledger operations. Test with errors.Is.
const (
	ErrUnauthorized    = errors.Unauthorized
	ErrNotFound        = errors.NotFound
	ErrInvalidInput    = errors.NotValid
	ErrDuplicateSerial = errors.ConstError("duplicate serial")
	ErrNotSold         = errors.ConstError("product not sold")
	ErrWarrantyExpired = errors.ConstError("warranty expired")
)

func unauthorizedf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrUnauthorized)
}

func notFoundf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrNotFound)
}

func invalidInputf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrInvalidInput)
}

func duplicateSerialf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrDuplicateSerial)
}

func notSoldf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrNotSold)
}

func warrantyExpiredf(format string, args ...interface{}) error {
	return errors.WithType(errors.Errorf(format, args...), ErrWarrantyExpired)
}

// Kind names the error kind of err for logs, metrics and API responses:
// "unauthorized", "not_found", "invalid_input", "duplicate_serial",
// "not_sold", "warranty_expired" or "internal". A nil error is "ok".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicateSerial):
		return "duplicate_serial"
	case errors.Is(err, ErrNotSold):
		return "not_sold"
	case errors.Is(err, ErrWarrantyExpired):
		return "warranty_expired"
	default:
		return "internal"
	}
}
