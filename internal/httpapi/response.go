package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// statusFor maps ledger error kinds onto HTTP status codes.
var statusFor = map[string]int{
	"unauthorized":     http.StatusForbidden,
	"not_found":        http.StatusNotFound,
	"invalid_input":    http.StatusBadRequest,
	"duplicate_serial": http.StatusConflict,
	"not_sold":         http.StatusUnprocessableEntity,
	"warranty_expired": http.StatusUnprocessableEntity,
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// respondLedgerError reports an operation failure. Internal errors are not
// echoed to the client.
func respondLedgerError(c *gin.Context, err error) {
	kind := ledger.Kind(err)
	status, ok := statusFor[kind]
	if !ok {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, kind, nil)
		return
	}
	RespondError(c, status, kind, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
