package dto

import (
	"time"

	"github.com/spec-kit/selfservice/internal/domain"
)

// ProductRequest payload for catalog create/update.
type ProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// ProductResponse is the outward product representation.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// PageResponse is the pagination envelope for list endpoints.
type PageResponse struct {
	Content       []ProductResponse `json:"content"`
	PageNumber    int               `json:"page_number"`
	PageSize      int               `json:"page_size"`
	TotalElements int64             `json:"total_elements"`
	TotalPages    int               `json:"total_pages"`
	First         bool              `json:"first"`
	Last          bool              `json:"last"`
}

// NewPageResponse assembles the envelope from a result page.
func NewPageResponse(products []domain.Product, page, size int, total int64) PageResponse {
	content := make([]ProductResponse, len(products))
	for i := range products {
		content[i] = NewProductResponse(&products[i])
	}

	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	return PageResponse{
		Content:       content,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          totalPages == 0 || page >= totalPages-1,
	}
}
