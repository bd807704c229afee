package ledger

import "math"

// Principal identifies an authenticated actor: manufacturer, owner, service
// provider or administrator. The empty principal is the null identity.
type Principal string

// IsNull reports whether p is the null identity.
func (p Principal) IsNull() bool {
	return p == ""
}

// Role is a capability granted to a principal by the administrator.
type Role string

const (
	RoleManufacturer    Role = "MANUFACTURER"
	RoleServiceProvider Role = "SERVICE_PROVIDER"
)

// ParseRole converts an external role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManufacturer:
		return RoleManufacturer, nil
	case RoleServiceProvider:
		return RoleServiceProvider, nil
	default:
		return "", invalidInputf("invalid role: %q", s)
	}
}

// ProductStatus is the lifecycle stage stored on a Product.
type ProductStatus string

const (
	ProductStatusManufactured    ProductStatus = "MANUFACTURED"
	ProductStatusInWarranty      ProductStatus = "IN_WARRANTY"
	ProductStatusServiced        ProductStatus = "SERVICED"
	ProductStatusWarrantyExpired ProductStatus = "WARRANTY_EXPIRED"

	// Reserved for terminal states; no core operation sets them.
	ProductStatusRecalled ProductStatus = "RECALLED"
	ProductStatusDisposed ProductStatus = "DISPOSED"
)

// ClaimStatus is the state of a WarrantyClaim.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "PENDING"
	ClaimStatusApproved  ClaimStatus = "APPROVED"
	ClaimStatusRejected  ClaimStatus = "REJECTED"
	ClaimStatusCompleted ClaimStatus = "COMPLETED"
)

// ParseClaimStatus converts an external status name into a ClaimStatus.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	switch ClaimStatus(s) {
	case ClaimStatusPending:
		return ClaimStatusPending, nil
	case ClaimStatusApproved:
		return ClaimStatusApproved, nil
	case ClaimStatusRejected:
		return ClaimStatusRejected, nil
	case ClaimStatusCompleted:
		return ClaimStatusCompleted, nil
	default:
		return "", invalidInputf("invalid claim status: %q", s)
	}
}

// Product is a manufactured item tracked from registration onwards.
// Timestamps are unix seconds and WarrantyDuration is in seconds;
// SaleTimestamp is 0 until the first transfer.
type Product struct {
	ID               uint64        `json:"id"`
	Name             string        `json:"name"`
	Model            string        `json:"model"`
	SerialNumber     string        `json:"serialNumber"`
	Manufacturer     Principal     `json:"manufacturer"`
	CurrentOwner     Principal     `json:"currentOwner"`
	ManufacturedAt   int64         `json:"manufacturedAt"`
	SaleTimestamp    int64         `json:"saleTimestamp"`
	WarrantyDuration int64         `json:"warrantyDuration"`
	Status           ProductStatus `json:"status"`
}

// Sold reports whether the product has been activated by a first transfer.
func (p *Product) Sold() bool {
	return p.SaleTimestamp > 0
}

// WarrantyExpiration returns the last second of the warranty window, or 0 if
// the product was never sold. Windows reaching past the int64 range end at
// math.MaxInt64.
func (p *Product) WarrantyExpiration() int64 {
	if !p.Sold() {
		return 0
	}
	if p.SaleTimestamp > math.MaxInt64-p.WarrantyDuration {
		return math.MaxInt64
	}
	return p.SaleTimestamp + p.WarrantyDuration
}

// UnderWarrantyAt reports whether now falls inside the warranty window.
func (p *Product) UnderWarrantyAt(now int64) bool {
	if !p.Sold() {
		return false
	}
	return now <= p.WarrantyExpiration()
}

// WarrantyClaim is a request by a product owner for warranty service.
type WarrantyClaim struct {
	ID               uint64      `json:"id"`
	ProductID        uint64      `json:"productId"`
	Claimant         Principal   `json:"claimant"`
	IssueDescription string      `json:"issueDescription"`
	ClaimDate        int64       `json:"claimDate"`
	ResolutionDate   int64       `json:"resolutionDate"`
	Status           ClaimStatus `json:"status"`
	Resolution       string      `json:"resolution"`
	ServiceCost      uint64      `json:"serviceCost"`
}

// ServiceRecord is one entry of a product's service history.
type ServiceRecord struct {
	ID              uint64    `json:"id"`
	ProductID       uint64    `json:"productId"`
	ServiceProvider Principal `json:"serviceProvider"`
	ServiceDate     int64     `json:"serviceDate"`
	Description     string    `json:"description"`
	Cost            uint64    `json:"cost"`
	PartsReplaced   string    `json:"partsReplaced"`
}

// RoleGrant records who granted a role to a principal and when.
type RoleGrant struct {
	Principal Principal `json:"principal"`
	Role      Role      `json:"role"`
	GrantedBy Principal `json:"grantedBy"`
}

// Lifecycle is a read-only snapshot of a product with its claim and service
// history.
type Lifecycle struct {
	Product        Product       `json:"product"`
	ClaimIDs       []uint64      `json:"claimIds"`
	ServiceIDs     []uint64      `json:"serviceIds"`
	WarrantyActive bool          `json:"warrantyActive"`
	DisplayStatus  ProductStatus `json:"displayStatus"`
}

// WarrantyStatus describes the warranty window of a product at a point in
// time.
type WarrantyStatus struct {
	ProductID        uint64 `json:"productId"`
	Sold             bool   `json:"sold"`
	SaleTimestamp    int64  `json:"saleTimestamp"`
	ExpiresAt        int64  `json:"expiresAt"`
	Active           bool   `json:"active"`
	RemainingSeconds int64  `json:"remainingSeconds"`
	CheckedAt        int64  `json:"checkedAt"`
}

// EventType names a notification emitted after a successful mutation.
type EventType string

const (
	EventProductRegistered      EventType = "ProductRegistered"
	EventProductSold            EventType = "ProductSold"
	EventWarrantyClaimSubmitted EventType = "WarrantyClaimSubmitted"
	EventClaimStatusUpdated     EventType = "ClaimStatusUpdated"
	EventServiceRecorded        EventType = "ServiceRecorded"
	EventProductStatusUpdated   EventType = "ProductStatusUpdated"
	EventRoleAuthorized         EventType = "RoleAuthorized"
)

// Event is a fire-and-forget fact about a committed mutation.
type Event struct {
	Type      EventType              `json:"type"`
	ProductID uint64                 `json:"productId,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
}
