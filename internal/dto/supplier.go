package dto

import (
	"time"

	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateSupplierRequest defines the data needed to register a supplier.
type CreateSupplierRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`                           // Optional
	Email   string `json:"email" binding:"omitempty,email"` // Optional
	Address string `json:"address"`                         // Optional
}

// UpdateSupplierRequest defines the data allowed for updating a supplier.
type UpdateSupplierRequest struct {
	Name    *string `json:"name"`    // Optional: New name
	Phone   *string `json:"phone"`   // Optional: New phone
	Email   *string `json:"email"`   // Optional: New email
	Address *string `json:"address"` // Optional: New address
}

// SupplierResponse defines the data returned for a supplier.
type SupplierResponse struct {
	SupplierID    string    `json:"supplierID"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// ToSupplierResponse converts a domain.Supplier to a DTO.
func ToSupplierResponse(s *domain.Supplier) SupplierResponse {
	return SupplierResponse{
		SupplierID:    s.SupplierID,
		Name:          s.Name,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		LastUpdatedAt: s.LastUpdatedAt,
	}
}

// ListSuppliersParams defines query parameters for listing suppliers.
type ListSuppliersParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListSuppliersResponse wraps the list of suppliers.
type ListSuppliersResponse struct {
	Suppliers []SupplierResponse `json:"suppliers"`
}

// ToListSuppliersResponse converts a slice of domain.Supplier to DTO.
func ToListSuppliersResponse(suppliers []domain.Supplier) ListSuppliersResponse {
	res := make([]SupplierResponse, len(suppliers))
	for i, s := range suppliers {
		res[i] = ToSupplierResponse(&s)
	}
	return ListSuppliersResponse{Suppliers: res}
}
