package dto

import (
	"github.com/shopledger/shopledger_backend/internal/core/domain"
)

// CreateCategoryRequest defines the data needed to create an expense or
// income category.
type CreateCategoryRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`     // Optional
	LedgerAccountID *string `json:"ledgerAccountID"` // Optional: falls back to the role default when unset
}

// UpdateCategoryRequest defines the data allowed for updating a category.
type UpdateCategoryRequest struct {
	Name            *string `json:"name"`            // Optional: New name
	Description     *string `json:"description"`     // Optional: New description
	LedgerAccountID *string `json:"ledgerAccountID"` // Optional: New mapped account
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID      string  `json:"categoryID"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	LedgerAccountID *string `json:"ledgerAccountID,omitempty"`
}

// ToExpenseCategoryResponse converts a domain.ExpenseCategory to a DTO.
func ToExpenseCategoryResponse(c *domain.ExpenseCategory) CategoryResponse {
	return CategoryResponse{
		CategoryID:      c.CategoryID,
		Name:            c.Name,
		Description:     c.Description,
		LedgerAccountID: c.LedgerAccountID,
	}
}

// ToIncomeCategoryResponse converts a domain.IncomeCategory to a DTO.
func ToIncomeCategoryResponse(c *domain.IncomeCategory) CategoryResponse {
	return CategoryResponse{
		CategoryID:      c.CategoryID,
		Name:            c.Name,
		Description:     c.Description,
		LedgerAccountID: c.LedgerAccountID,
	}
}

// ToExpenseCategoryResponses converts a slice of domain.ExpenseCategory to DTOs.
func ToExpenseCategoryResponses(categories []domain.ExpenseCategory) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		res[i] = ToExpenseCategoryResponse(&c)
	}
	return res
}

// ToIncomeCategoryResponses converts a slice of domain.IncomeCategory to DTOs.
func ToIncomeCategoryResponses(categories []domain.IncomeCategory) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		res[i] = ToIncomeCategoryResponse(&c)
	}
	return res
}
