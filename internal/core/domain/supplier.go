package domain

// Supplier is a vendor the shop buys from.
type Supplier struct {
	SupplierID string `json:"supplierID"` // Primary key (UUID)
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	IsActive   bool   `json:"isActive"`
	AuditFields
}
