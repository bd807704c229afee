package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// PrincipalHeader carries the caller identity established by the gateway in
// front of the node.
const PrincipalHeader = "X-Principal"

// Ledger runs operations against the node's ledger.
type Ledger interface {
	Update(op string, fn func(*ledger.Ledger) error) error
	View(op string, fn func(*ledger.Ledger) error) error
}

type Handler struct {
	ledger Ledger
}

func NewHandler(l Ledger) *Handler {
	return &Handler{ledger: l}
}

func caller(c *gin.Context) ledger.Principal {
	return ledger.Principal(strings.TrimSpace(c.GetHeader(PrincipalHeader)))
}

// idParam parses a numeric path parameter, responding 400 when it is not one.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return 0, false
	}
	return id, true
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return false
	}
	return true
}

type authorizeRequest struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

// POST /v1/roles
func (h *Handler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if !bind(c, &req) {
		return
	}
	err := h.ledger.Update("authorize", func(l *ledger.Ledger) error {
		return l.Authorize(caller(c), ledger.Principal(req.Principal), ledger.Role(req.Role))
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/roles/:role/*principal
func (h *Handler) IsAuthorized(c *gin.Context) {
	role, err := ledger.ParseRole(c.Param("role"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	principal := ledger.Principal(strings.TrimPrefix(c.Param("principal"), "/"))

	var authorized bool
	err = h.ledger.View("isAuthorized", func(l *ledger.Ledger) error {
		var err error
		authorized, err = l.IsAuthorized(principal, role)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, gin.H{"principal": principal, "role": role, "authorized": authorized})
}

type registerRequest struct {
	Name             string `json:"name"`
	Model            string `json:"model"`
	SerialNumber     string `json:"serialNumber"`
	WarrantyDuration int64  `json:"warrantyDuration"`
}

// POST /v1/products
func (h *Handler) RegisterProduct(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	var id uint64
	err := h.ledger.Update("registerProduct", func(l *ledger.Ledger) error {
		var err error
		id, err = l.RegisterProduct(caller(c), req.Name, req.Model, req.SerialNumber, req.WarrantyDuration)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"productId": id})
}

// GET /v1/products/:id
func (h *Handler) Product(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product *ledger.Product
	err := h.ledger.View("product", func(l *ledger.Ledger) error {
		var err error
		product, err = l.Product(id)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, product)
}

// GET /v1/serials/:serial
func (h *Handler) LookupBySerial(c *gin.Context) {
	serial := c.Param("serial")
	var id uint64
	err := h.ledger.View("lookupBySerial", func(l *ledger.Ledger) error {
		var err error
		id, err = l.LookupBySerial(serial)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, gin.H{"productId": id, "serialNumber": serial})
}

type transferRequest struct {
	NewOwner string `json:"newOwner"`
}

// POST /v1/products/:id/transfer
func (h *Handler) TransferOwnership(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req transferRequest
	if !bind(c, &req) {
		return
	}
	err := h.ledger.Update("transferOwnership", func(l *ledger.Ledger) error {
		return l.TransferOwnership(caller(c), id, ledger.Principal(req.NewOwner))
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/products/:id/warranty
func (h *Handler) WarrantyStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var ws *ledger.WarrantyStatus
	err := h.ledger.View("warrantyStatus", func(l *ledger.Ledger) error {
		var err error
		ws, err = l.WarrantyStatus(id)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, ws)
}

// GET /v1/products/:id/lifecycle
func (h *Handler) ProductLifecycle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var lc *ledger.Lifecycle
	err := h.ledger.View("productLifecycle", func(l *ledger.Ledger) error {
		var err error
		lc, err = l.ProductLifecycle(id)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, lc)
}

type claimRequest struct {
	IssueDescription string `json:"issueDescription"`
}

// POST /v1/products/:id/claims
func (h *Handler) SubmitClaim(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req claimRequest
	if !bind(c, &req) {
		return
	}
	var id uint64
	err := h.ledger.Update("submitClaim", func(l *ledger.Ledger) error {
		var err error
		id, err = l.SubmitClaim(caller(c), productID, req.IssueDescription)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"claimId": id})
}

// GET /v1/products/:id/claims
func (h *Handler) ClaimsForProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var ids []uint64
	err := h.ledger.View("claimsForProduct", func(l *ledger.Ledger) error {
		var err error
		ids, err = l.ClaimsForProduct(productID)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, gin.H{"productId": productID, "claimIds": ids})
}

// GET /v1/claims/:id
func (h *Handler) Claim(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var claim *ledger.WarrantyClaim
	err := h.ledger.View("claim", func(l *ledger.Ledger) error {
		var err error
		claim, err = l.Claim(id)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, claim)
}

type claimStatusRequest struct {
	Status      string `json:"status"`
	Resolution  string `json:"resolution"`
	ServiceCost uint64 `json:"serviceCost"`
}

// PUT /v1/claims/:id/status
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req claimStatusRequest
	if !bind(c, &req) {
		return
	}
	err := h.ledger.Update("updateClaimStatus", func(l *ledger.Ledger) error {
		return l.UpdateClaimStatus(caller(c), id, ledger.ClaimStatus(req.Status), req.Resolution, req.ServiceCost)
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type serviceRequest struct {
	Description   string `json:"description"`
	Cost          uint64 `json:"cost"`
	PartsReplaced string `json:"partsReplaced"`
}

// POST /v1/products/:id/services
func (h *Handler) RecordService(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req serviceRequest
	if !bind(c, &req) {
		return
	}
	var id uint64
	err := h.ledger.Update("recordService", func(l *ledger.Ledger) error {
		var err error
		id, err = l.RecordService(caller(c), productID, req.Description, req.Cost, req.PartsReplaced)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"serviceId": id})
}

// GET /v1/products/:id/services
func (h *Handler) ServicesForProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var ids []uint64
	err := h.ledger.View("servicesForProduct", func(l *ledger.Ledger) error {
		var err error
		ids, err = l.ServicesForProduct(productID)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, gin.H{"productId": productID, "serviceIds": ids})
}

// GET /v1/services/:id
func (h *Handler) ServiceRecord(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var record *ledger.ServiceRecord
	err := h.ledger.View("serviceRecord", func(l *ledger.Ledger) error {
		var err error
		record, err = l.ServiceRecord(id)
		return err
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	RespondOK(c, record)
}
